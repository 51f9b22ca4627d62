package keeper

import (
	"fmt"
	"strings"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
)

// createImpl routes a create through the bridge and rewrites the created
// path back into the caller's namespace.
func (c *Client) createImpl(path string, data []byte, mode coordination.CreateMode) (string, coordination.Code) {
	req := &coordination.CreateRequest{Path: c.withChroot(path), Data: data, Mode: mode}
	resp, code := await(c, req, submit[*coordination.CreateResponse](c, req, nil))
	if code != coordination.Ok {
		return "", code
	}
	return c.stripChroot(resp.PathCreated), code
}

// TryCreate creates a node, returning the non-fatal outcomes (NodeExists,
// NoNode, NoChildrenForEphemerals) as a code. Any other failure is an error.
func (c *Client) TryCreate(path string, data []byte, mode coordination.CreateMode) (string, coordination.Code, error) {
	created, code := c.createImpl(path, data, mode)
	switch code {
	case coordination.Ok, coordination.NoNode, coordination.NodeExists, coordination.NoChildrenForEphemerals:
		return created, code, nil
	}
	return "", code, coordination.NewKeeperError(code, path)
}

// Create creates a node and returns the created path (which differs from the
// requested one for sequential modes). Any non-Ok outcome is an error.
func (c *Client) Create(path string, data []byte, mode coordination.CreateMode) (string, error) {
	created, code, err := c.TryCreate(path, data, mode)
	if err != nil {
		return "", err
	}
	if code != coordination.Ok {
		return "", coordination.NewKeeperError(code, path)
	}
	return created, nil
}

// CreateIfNotExists creates a persistent node, treating NodeExists as
// success.
func (c *Client) CreateIfNotExists(path string, data []byte) error {
	_, code := c.createImpl(path, data, coordination.ModePersistent)
	if code == coordination.Ok || code == coordination.NodeExists {
		return nil
	}
	return coordination.NewKeeperError(code, path)
}

// CreateAncestors creates every missing intermediate node on the way to
// path. The final segment itself is not created. Safe under concurrent
// ancestor creation.
func (c *Client) CreateAncestors(path string) error {
	if path == "" {
		return nil
	}
	pos := 1
	for {
		idx := strings.Index(path[pos:], "/")
		if idx < 0 {
			return nil
		}
		pos += idx
		if err := c.CreateIfNotExists(path[:pos], nil); err != nil {
			return err
		}
		pos++
	}
}

// removeImpl routes a remove through the bridge.
func (c *Client) removeImpl(path string, version int32) coordination.Code {
	req := &coordination.RemoveRequest{Path: c.withChroot(path), Version: version}
	_, code := await(c, req, submit[*coordination.RemoveResponse](c, req, nil))
	return code
}

// TryRemove removes a node, returning NoNode, BadVersion and NotEmpty as
// codes. Any other failure is an error.
func (c *Client) TryRemove(path string, version int32) (coordination.Code, error) {
	code := c.removeImpl(path, version)
	switch code {
	case coordination.Ok, coordination.NoNode, coordination.BadVersion, coordination.NotEmpty:
		return code, nil
	}
	return code, coordination.NewKeeperError(code, path)
}

// Remove removes a node. Any non-Ok outcome is an error.
func (c *Client) Remove(path string, version int32) error {
	code, err := c.TryRemove(path, version)
	if err != nil {
		return err
	}
	if code != coordination.Ok {
		return coordination.NewKeeperError(code, path)
	}
	return nil
}

// existsImpl routes an exists through the bridge.
func (c *Client) existsImpl(path string, onWatch coordination.WatchFn) (*coordination.ExistsResponse, coordination.Code) {
	req := &coordination.ExistsRequest{Path: c.withChroot(path)}
	return await(c, req, submit[*coordination.ExistsResponse](c, req, c.wrapWatch(onWatch)))
}

// Exists reports whether the node exists, with its stat when it does.
func (c *Client) Exists(path string) (bool, *coordination.Stat, error) {
	return c.ExistsWatch(path, nil)
}

// ExistsWatch is Exists with a one-shot watch on the path. The watch is
// registered whether or not the node exists.
func (c *Client) ExistsWatch(path string, onWatch coordination.WatchFn) (bool, *coordination.Stat, error) {
	resp, code := c.existsImpl(path, onWatch)
	if code == coordination.NoNode {
		return false, nil, nil
	}
	if code != coordination.Ok {
		return false, nil, coordination.NewKeeperError(code, path)
	}
	stat := resp.Stat
	return true, &stat, nil
}

// getImpl routes a get through the bridge.
func (c *Client) getImpl(path string, onWatch coordination.WatchFn) (*coordination.GetResponse, coordination.Code) {
	req := &coordination.GetRequest{Path: c.withChroot(path)}
	return await(c, req, submit[*coordination.GetResponse](c, req, c.wrapWatch(onWatch)))
}

// TryGet reads a node's data, returning NoNode as a code. Any other failure
// is an error.
func (c *Client) TryGet(path string) ([]byte, *coordination.Stat, coordination.Code, error) {
	return c.TryGetWatch(path, nil)
}

// TryGetWatch is TryGet with a one-shot watch, registered only when the node
// exists.
func (c *Client) TryGetWatch(path string, onWatch coordination.WatchFn) ([]byte, *coordination.Stat, coordination.Code, error) {
	resp, code := c.getImpl(path, onWatch)
	if code == coordination.NoNode {
		return nil, nil, code, nil
	}
	if code != coordination.Ok {
		return nil, nil, code, coordination.NewKeeperError(code, path)
	}
	stat := resp.Stat
	return resp.Data, &stat, code, nil
}

// Get reads a node's data. A missing node is an error.
func (c *Client) Get(path string) ([]byte, *coordination.Stat, error) {
	return c.GetWatch(path, nil)
}

// GetWatch is Get with a one-shot watch.
func (c *Client) GetWatch(path string, onWatch coordination.WatchFn) ([]byte, *coordination.Stat, error) {
	data, stat, code, err := c.TryGetWatch(path, onWatch)
	if err != nil {
		return nil, nil, err
	}
	if code != coordination.Ok {
		return nil, nil, &coordination.KeeperError{
			Code:    code,
			Path:    path,
			Message: fmt.Sprintf("can't get data for node %s: node doesn't exist", path),
		}
	}
	return data, stat, nil
}

// setImpl routes a set through the bridge.
func (c *Client) setImpl(path string, data []byte, version int32) (*coordination.SetResponse, coordination.Code) {
	req := &coordination.SetRequest{Path: c.withChroot(path), Data: data, Version: version}
	return await(c, req, submit[*coordination.SetResponse](c, req, nil))
}

// TrySet writes a node's data under an optional version check, returning
// NoNode and BadVersion as codes. Any other failure is an error.
func (c *Client) TrySet(path string, data []byte, version int32) (*coordination.Stat, coordination.Code, error) {
	resp, code := c.setImpl(path, data, version)
	switch code {
	case coordination.Ok:
		stat := resp.Stat
		return &stat, code, nil
	case coordination.NoNode, coordination.BadVersion:
		return nil, code, nil
	}
	return nil, code, coordination.NewKeeperError(code, path)
}

// Set writes a node's data. Any non-Ok outcome is an error.
func (c *Client) Set(path string, data []byte, version int32) (*coordination.Stat, error) {
	stat, code, err := c.TrySet(path, data, version)
	if err != nil {
		return nil, err
	}
	if code != coordination.Ok {
		return nil, coordination.NewKeeperError(code, path)
	}
	return stat, nil
}

// CreateOrUpdate writes the node unconditionally, creating it if it does not
// exist yet.
func (c *Client) CreateOrUpdate(path string, data []byte, mode coordination.CreateMode) error {
	_, code, err := c.TrySet(path, data, coordination.AnyVersion)
	if err != nil {
		return err
	}
	if code == coordination.NoNode {
		_, err := c.Create(path, data, mode)
		return err
	}
	if code != coordination.Ok {
		return coordination.NewKeeperError(code, path)
	}
	return nil
}

// childrenImpl routes a children listing through the bridge.
func (c *Client) childrenImpl(path string, onWatch coordination.WatchFn) (*coordination.ListResponse, coordination.Code) {
	req := &coordination.ListRequest{Path: c.withChroot(path)}
	return await(c, req, submit[*coordination.ListResponse](c, req, c.wrapWatch(onWatch)))
}

// TryChildren lists the immediate children of a node, returning NoNode as a
// code. Any other failure is an error.
func (c *Client) TryChildren(path string) ([]string, *coordination.Stat, coordination.Code, error) {
	return c.TryChildrenWatch(path, nil)
}

// TryChildrenWatch is TryChildren with a one-shot child watch.
func (c *Client) TryChildrenWatch(path string, onWatch coordination.WatchFn) ([]string, *coordination.Stat, coordination.Code, error) {
	resp, code := c.childrenImpl(path, onWatch)
	if code == coordination.NoNode {
		return nil, nil, code, nil
	}
	if code != coordination.Ok {
		return nil, nil, code, coordination.NewKeeperError(code, path)
	}
	stat := resp.Stat
	return resp.Names, &stat, code, nil
}

// Children lists the immediate children of a node. A missing node is an
// error.
func (c *Client) Children(path string) ([]string, *coordination.Stat, error) {
	return c.ChildrenWatch(path, nil)
}

// ChildrenWatch is Children with a one-shot child watch.
func (c *Client) ChildrenWatch(path string, onWatch coordination.WatchFn) ([]string, *coordination.Stat, error) {
	names, stat, code, err := c.TryChildrenWatch(path, onWatch)
	if err != nil {
		return nil, nil, err
	}
	if code != coordination.Ok {
		return nil, nil, coordination.NewKeeperError(code, path)
	}
	return names, stat, nil
}

// wrapWatch rewrites event paths back into the caller's namespace before the
// caller's callback sees them.
func (c *Client) wrapWatch(onWatch coordination.WatchFn) coordination.WatchFn {
	if onWatch == nil || c.cfg.Chroot == "" {
		return onWatch
	}
	return func(ev coordination.WatchEvent) {
		ev.Path = c.stripChroot(ev.Path)
		onWatch(ev)
	}
}
