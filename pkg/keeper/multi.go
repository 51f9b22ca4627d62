package keeper

import (
	"github.com/mikekulinski/keeperclient/pkg/coordination"
)

// multiImpl submits the operations as one atomic unit. An empty list
// short-circuits to success without a round trip. Paths are rewritten into
// the engine namespace on the way out and created paths stripped on the way
// back, so the caller's requests stay untouched for diagnostics.
func (c *Client) multiImpl(ops []coordination.Request) ([]coordination.Response, coordination.Code) {
	if len(ops) == 0 {
		return nil, coordination.Ok
	}

	req := &coordination.MultiRequest{Ops: c.rewriteOps(ops)}
	resp, code := await(c, req, submit[*coordination.MultiResponse](c, req, nil))
	if resp == nil {
		return nil, code
	}
	responses := resp.Responses
	if c.cfg.Chroot != "" {
		for _, sub := range responses {
			if created, ok := sub.(*coordination.CreateResponse); ok {
				created.PathCreated = c.stripChroot(created.PathCreated)
			}
		}
	}
	return responses, code
}

// Multi applies the operations atomically. On success the full response list
// is returned. A failure attributable to one sub-operation surfaces as a
// *coordination.MultiError carrying the failed index and path; session class
// failures surface as a *coordination.KeeperError with no per-operation
// detail, because none is meaningful.
func (c *Client) Multi(ops []coordination.Request) ([]coordination.Response, error) {
	responses, code := c.multiImpl(ops)
	if err := coordination.CheckMulti(code, ops, responses); err != nil {
		return responses, err
	}
	return responses, nil
}

// TryMulti is Multi with user-error outcomes returned as a code instead of
// an error. Fatal codes are still errors.
func (c *Client) TryMulti(ops []coordination.Request) ([]coordination.Response, coordination.Code, error) {
	responses, code := c.multiImpl(ops)
	if code != coordination.Ok && !coordination.IsUserError(code) {
		return responses, code, coordination.NewKeeperError(code, "")
	}
	return responses, code, nil
}

// rewriteOps clones the operations with chroot-rewritten paths. Without a
// chroot the original slice is submitted as is.
func (c *Client) rewriteOps(ops []coordination.Request) []coordination.Request {
	if c.cfg.Chroot == "" {
		return ops
	}
	rewritten := make([]coordination.Request, 0, len(ops))
	for _, op := range ops {
		switch typed := op.(type) {
		case *coordination.CreateRequest:
			rewritten = append(rewritten, &coordination.CreateRequest{
				Path: c.withChroot(typed.Path), Data: typed.Data, Mode: typed.Mode,
			})
		case *coordination.RemoveRequest:
			rewritten = append(rewritten, &coordination.RemoveRequest{
				Path: c.withChroot(typed.Path), Version: typed.Version,
			})
		case *coordination.SetRequest:
			rewritten = append(rewritten, &coordination.SetRequest{
				Path: c.withChroot(typed.Path), Data: typed.Data, Version: typed.Version,
			})
		case *coordination.CheckRequest:
			rewritten = append(rewritten, &coordination.CheckRequest{
				Path: c.withChroot(typed.Path), Version: typed.Version,
			})
		default:
			rewritten = append(rewritten, op)
		}
	}
	return rewritten
}
