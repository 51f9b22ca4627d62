package keeper

import (
	"github.com/mikekulinski/keeperclient/pkg/coordination"
)

// MultiBatchSize caps how many child removals go into one atomic multi
// request, bounding request size and latency for large subtrees.
const MultiBatchSize = 100

func joinPath(parent, child string) string {
	if parent == "/" {
		return "/" + child
	}
	return parent + "/" + child
}

// RemoveChildren removes all immediate children of path in atomic batches.
// Children are assumed to be leaves; a child with children of its own fails
// the batch with NotEmpty.
func (c *Client) RemoveChildren(path string) error {
	children, _, err := c.Children(path)
	if err != nil {
		return err
	}
	for len(children) > 0 {
		var ops []coordination.Request
		for i := 0; i < MultiBatchSize && len(children) > 0; i++ {
			child := children[len(children)-1]
			children = children[:len(children)-1]
			ops = append(ops, coordination.NewRemoveRequest(joinPath(path, child), coordination.AnyVersion))
		}
		if _, err := c.Multi(ops); err != nil {
			return err
		}
	}
	return nil
}

// RemoveChildrenRecursive removes the whole subtree below path depth first,
// batching removals into atomic multi requests. A child named keepChild is
// left in place; pass "" to keep nothing.
func (c *Client) RemoveChildrenRecursive(path string, keepChild string) error {
	children, _, err := c.Children(path)
	if err != nil {
		return err
	}
	for len(children) > 0 {
		var ops []coordination.Request
		for i := 0; i < MultiBatchSize && len(children) > 0; i++ {
			child := children[len(children)-1]
			children = children[:len(children)-1]
			if err := c.RemoveChildrenRecursive(joinPath(path, child), ""); err != nil {
				return err
			}
			if keepChild == "" || keepChild != child {
				ops = append(ops, coordination.NewRemoveRequest(joinPath(path, child), coordination.AnyVersion))
			}
		}
		if _, err := c.Multi(ops); err != nil {
			return err
		}
	}
	return nil
}

// RemoveRecursive removes path and everything below it. All or nothing: any
// failure, including a concurrent mutation breaking a batch, aborts with an
// error.
func (c *Client) RemoveRecursive(path string) error {
	if err := c.RemoveChildrenRecursive(path, ""); err != nil {
		return err
	}
	return c.Remove(path, coordination.AnyVersion)
}

// TryRemoveChildrenRecursive is the best-effort subtree removal used when
// other sessions may be mutating the tree at the same time. It removes what
// it can and reports whether everything went through the fast batched path.
//
// probablyFlat skips the recursive descent before each batch, saving a
// listing round trip per child when most children are leaves; children that
// turn out to have children of their own are handled in the fallback via
// NotEmpty. Whether that trade is favorable depends on the tree shape, so
// the toggle is left to the caller.
//
// The returned flag is false when the listing failed (root already gone) or
// when any batch had to fall back to per-child removal; the subtree may
// still be fully removed in that case, the removal just was not atomic per
// batch.
func (c *Client) TryRemoveChildrenRecursive(path string, probablyFlat bool, keepChild string) (bool, error) {
	children, _, code, err := c.TryChildren(path)
	if err != nil {
		return false, err
	}
	if code != coordination.Ok {
		return false, nil
	}

	removedAsExpected := true
	for len(children) > 0 {
		ops := make([]coordination.Request, 0, MultiBatchSize)
		batch := make([]string, 0, MultiBatchSize)
		for i := 0; i < MultiBatchSize && len(children) > 0; i++ {
			child := children[len(children)-1]
			children = children[:len(children)-1]
			childPath := joinPath(path, child)

			if !probablyFlat {
				if _, err := c.TryRemoveChildrenRecursive(childPath, false, ""); err != nil {
					return false, err
				}
			}

			if keepChild == "" || keepChild != child {
				batch = append(batch, childPath)
				ops = append(ops, coordination.NewRemoveRequest(childPath, coordination.AnyVersion))
			}
		}

		// Remove the batch in bulk first. If that fails, someone is removing
		// these children concurrently and the only way to make progress is
		// one by one.
		if _, code, err := c.TryMulti(ops); err != nil {
			return false, err
		} else if code == coordination.Ok {
			continue
		}

		removedAsExpected = false

		futures := make([]future[*coordination.RemoveResponse], 0, len(batch))
		requests := make([]*coordination.RemoveRequest, 0, len(batch))
		for _, childPath := range batch {
			req := &coordination.RemoveRequest{Path: c.withChroot(childPath), Version: coordination.AnyVersion}
			requests = append(requests, req)
			futures = append(futures, submit[*coordination.RemoveResponse](c, req, nil))
		}

		for i := range futures {
			_, code := await(c, requests[i], futures[i])
			switch code {
			case coordination.Ok, coordination.NoNode:
				continue
			case coordination.NotEmpty:
				// Only reachable when probablyFlat skipped the descent: the
				// child actually has children, so remove them now and retry.
				if _, err := c.TryRemoveChildrenRecursive(batch[i], false, ""); err != nil {
					return false, err
				}
				if _, err := c.TryRemove(batch[i], coordination.AnyVersion); err != nil {
					return false, err
				}
			default:
				return false, coordination.NewKeeperError(code, batch[i])
			}
		}
	}
	return removedAsExpected, nil
}

// TryRemoveRecursive is the best-effort counterpart of RemoveRecursive:
// concurrent removals by other sessions are tolerated instead of failing the
// operation.
func (c *Client) TryRemoveRecursive(path string) error {
	if _, err := c.TryRemoveChildrenRecursive(path, false, ""); err != nil {
		return err
	}
	_, err := c.TryRemove(path, coordination.AnyVersion)
	return err
}
