package keeper

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
)

// future is a single-slot completion handle for one submitted operation. The
// slot is buffered so that a completion arriving after the bridge gave up is
// simply dropped; a late result must not be observable once the session has
// been torn down.
type future[R coordination.Response] struct {
	ch chan R
}

// submit sends the request to the engine and returns the future its
// completion will land in. Methods cannot carry type parameters, hence the
// package-level function.
func submit[R coordination.Response](c *Client, req coordination.Request, onWatch coordination.WatchFn) future[R] {
	f := future[R]{ch: make(chan R, 1)}
	c.impl.Submit(req, func(resp coordination.Response) {
		typed, ok := resp.(R)
		if !ok {
			c.log.Error("engine delivered mismatched response type",
				zap.String("op", req.OpName()), zap.String("path", req.GetPath()))
			return
		}
		select {
		case f.ch <- typed:
		default:
		}
	}, onWatch)
	return f
}

// await blocks until the operation completes or the operation timeout
// elapses. On timeout the session is terminated so that nothing can block on
// it indefinitely, and the dedicated timeout code is returned; the response
// is nil in that case.
func await[R coordination.Response](c *Client, req coordination.Request, f future[R]) (R, coordination.Code) {
	timer := time.NewTimer(c.cfg.OperationTimeout)
	defer timer.Stop()

	select {
	case resp := <-f.ch:
		return resp, resp.Err()
	case <-timer.C:
		c.impl.Terminate(fmt.Sprintf("operation timeout on %s %s", req.OpName(), req.GetPath()))
		var zero R
		return zero, coordination.OperationTimeout
	}
}
