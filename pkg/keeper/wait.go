package keeper

import (
	"sync"
	"time"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
)

// waitSlice bounds each wait so the condition can be re-polled even when no
// state change arrives.
const waitSlice = time.Second

type disappearState struct {
	mu        sync.Mutex
	code      coordination.Code
	eventType coordination.EventType
	signal    chan struct{}
}

func (s *disappearState) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// WaitForDisappear blocks until path is deleted or the condition reports
// false. The condition is cooperative: it is re-checked after each bounded
// wait slice, never preemptively, so it may be called with a condition that
// is already false to get a single non-blocking probe.
//
// A missing node counts as already gone. Any session class failure during
// the wait is an error. The return value is false only when the condition
// gave up before the node disappeared.
func (c *Client) WaitForDisappear(path string, condition func() bool) (bool, error) {
	state := &disappearState{signal: make(chan struct{}, 1)}

	// A read with a watch is used instead of exists to avoid leaking a watch
	// on a node that never reappears. A successful read does not signal;
	// only an error or a watch event does.
	callback := func(resp coordination.Response) {
		if code := resp.Err(); code != coordination.Ok {
			state.mu.Lock()
			state.code = code
			state.mu.Unlock()
			state.notify()
		}
	}
	watch := func(ev coordination.WatchEvent) {
		state.mu.Lock()
		if state.code == coordination.Ok {
			state.code = ev.Code
			if ev.Code == coordination.Ok {
				state.eventType = ev.Type
			}
		}
		state.mu.Unlock()
		state.notify()
	}

	for {
		req := &coordination.GetRequest{Path: c.withChroot(path)}
		c.impl.Submit(req, callback, watch)

		timer := time.NewTimer(waitSlice)
		fired := false
		select {
		case <-state.signal:
			fired = true
		case <-timer.C:
		}
		timer.Stop()

		if fired {
			state.mu.Lock()
			code := state.code
			eventType := state.eventType
			state.mu.Unlock()

			if code == coordination.NoNode {
				return true, nil
			}
			if code != coordination.Ok {
				return false, coordination.NewKeeperError(code, path)
			}
			if eventType == coordination.EventDeleted {
				return true, nil
			}
		}

		if condition != nil && !condition() {
			return false, nil
		}
	}
}
