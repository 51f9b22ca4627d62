// Package memkeeper is an in-memory coordination engine. It implements the
// versioned node tree, one-shot watches, ephemeral nodes and atomic multi
// transactions of the real service, minus the network. The client test suite
// and the demo CLI run against it.
//
// A Keeper holds the shared tree; each client session gets its own engine
// handle via NewSession. Sessions submit operations into a private queue
// consumed by one worker goroutine, which preserves the per-session
// completion ordering the client relies on.
package memkeeper

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
)

// Keeper is the shared in-memory tree plus the watch and session registries.
type Keeper struct {
	log *zap.Logger

	mu            sync.Mutex
	root          *node
	zxid          int64
	nextSessionID int64
	dataWatches   map[string][]watch
	childWatches  map[string][]watch
	ephemerals    map[int64]map[string]struct{}
}

type node struct {
	data     []byte
	stat     coordination.Stat
	children map[string]*node
	nextSeq  int32
}

type watch struct {
	fn        coordination.WatchFn
	sessionID int64
}

// New builds an empty tree.
func New(log *zap.Logger) *Keeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Keeper{
		log:          log,
		root:         newNode(nil, 0),
		dataWatches:  map[string][]watch{},
		childWatches: map[string][]watch{},
		ephemerals:   map[int64]map[string]struct{}{},
	}
}

func newNode(data []byte, owner int64) *node {
	return &node{
		data:     data,
		children: map[string]*node{},
		stat: coordination.Stat{
			EphemeralOwner: owner,
			DataLength:     int32(len(data)),
		},
	}
}

// validatePath rejects paths the tree cannot address: everything must start
// at the root, name the node explicitly and contain no empty segments.
func validatePath(path string) coordination.Code {
	if !strings.HasPrefix(path, "/") {
		return coordination.BadArguments
	}
	if path == "/" {
		return coordination.Ok
	}
	if strings.HasSuffix(path, "/") {
		return coordination.BadArguments
	}
	for _, name := range strings.Split(path, "/")[1:] {
		if name == "" {
			return coordination.BadArguments
		}
	}
	return coordination.Ok
}

func splitPath(path string) []string {
	if path == "/" {
		return nil
	}
	return strings.Split(path, "/")[1:]
}

// findNode walks the tree down to the node named by the path segments,
// returning nil if any segment is missing.
func findNode(start *node, names []string) *node {
	current := start
	for _, name := range names {
		child, ok := current.children[name]
		if !ok {
			return nil
		}
		current = child
	}
	return current
}

func parentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

func joinPath(parent, child string) string {
	if parent == "/" {
		return "/" + child
	}
	return parent + "/" + child
}

// event is a watch notification collected during an operation and fired
// after the tree mutation committed.
type event struct {
	path  string
	typ   coordination.EventType
	child bool
}

// fire delivers the pending events to the matching one-shot watches. Called
// with k.mu held.
func (k *Keeper) fire(events []event) {
	for _, ev := range events {
		var fns []watch
		if ev.child {
			fns = k.childWatches[ev.path]
			delete(k.childWatches, ev.path)
		} else {
			fns = k.dataWatches[ev.path]
			delete(k.dataWatches, ev.path)
		}
		for _, w := range fns {
			w.fn(coordination.WatchEvent{Type: ev.typ, Path: ev.path, Code: coordination.Ok})
		}
	}
}

// create adds a node. Called with k.mu held.
func (k *Keeper) create(sessionID int64, req *coordination.CreateRequest) (*coordination.CreateResponse, []event, func()) {
	if code := validatePath(req.Path); code != coordination.Ok || req.Path == "/" {
		if code == coordination.Ok {
			code = coordination.BadArguments
		}
		return &coordination.CreateResponse{Code: code}, nil, nil
	}

	names := splitPath(req.Path)
	parent := findNode(k.root, names[:len(names)-1])
	if parent == nil {
		return &coordination.CreateResponse{Code: coordination.NoNode}, nil, nil
	}
	if parent.stat.EphemeralOwner != 0 {
		return &coordination.CreateResponse{Code: coordination.NoChildrenForEphemerals}, nil, nil
	}

	name := names[len(names)-1]
	if req.Mode.IsSequential() {
		name = fmt.Sprintf("%s%010d", name, parent.nextSeq)
	}
	if _, ok := parent.children[name]; ok {
		return &coordination.CreateResponse{Code: coordination.NodeExists}, nil, nil
	}

	var owner int64
	if req.Mode.IsEphemeral() {
		owner = sessionID
	}
	k.zxid++
	created := newNode(req.Data, owner)
	created.stat.Czxid = k.zxid
	created.stat.Mzxid = k.zxid
	parent.children[name] = created
	if req.Mode.IsSequential() {
		parent.nextSeq++
	}
	parent.stat.Cversion++
	parent.stat.NumChildren++
	parent.stat.Pzxid = k.zxid

	pathCreated := joinPath(parentPath(req.Path), name)
	if owner != 0 {
		owned, ok := k.ephemerals[sessionID]
		if !ok {
			owned = map[string]struct{}{}
			k.ephemerals[sessionID] = owned
		}
		owned[pathCreated] = struct{}{}
	}

	events := []event{
		{path: pathCreated, typ: coordination.EventCreated},
		{path: parentPath(req.Path), typ: coordination.EventChild, child: true},
	}
	undo := func() {
		delete(parent.children, name)
		if req.Mode.IsSequential() {
			parent.nextSeq--
		}
		parent.stat.Cversion--
		parent.stat.NumChildren--
		if owner != 0 {
			delete(k.ephemerals[sessionID], pathCreated)
		}
	}
	return &coordination.CreateResponse{Code: coordination.Ok, PathCreated: pathCreated}, events, undo
}

// remove deletes a leaf node. Called with k.mu held.
func (k *Keeper) remove(req *coordination.RemoveRequest) (*coordination.RemoveResponse, []event, func()) {
	if code := validatePath(req.Path); code != coordination.Ok || req.Path == "/" {
		return &coordination.RemoveResponse{Code: coordination.BadArguments}, nil, nil
	}

	names := splitPath(req.Path)
	parent := findNode(k.root, names[:len(names)-1])
	if parent == nil {
		return &coordination.RemoveResponse{Code: coordination.NoNode}, nil, nil
	}
	name := names[len(names)-1]
	target, ok := parent.children[name]
	if !ok {
		return &coordination.RemoveResponse{Code: coordination.NoNode}, nil, nil
	}
	if req.Version != coordination.AnyVersion && req.Version != target.stat.Version {
		return &coordination.RemoveResponse{Code: coordination.BadVersion}, nil, nil
	}
	if len(target.children) > 0 {
		return &coordination.RemoveResponse{Code: coordination.NotEmpty}, nil, nil
	}

	k.zxid++
	delete(parent.children, name)
	parent.stat.Cversion++
	parent.stat.NumChildren--
	parent.stat.Pzxid = k.zxid
	if target.stat.EphemeralOwner != 0 {
		delete(k.ephemerals[target.stat.EphemeralOwner], req.Path)
	}

	events := []event{
		{path: req.Path, typ: coordination.EventDeleted},
		{path: parentPath(req.Path), typ: coordination.EventChild, child: true},
	}
	undo := func() {
		parent.children[name] = target
		parent.stat.Cversion--
		parent.stat.NumChildren++
		if target.stat.EphemeralOwner != 0 {
			owned, ok := k.ephemerals[target.stat.EphemeralOwner]
			if !ok {
				owned = map[string]struct{}{}
				k.ephemerals[target.stat.EphemeralOwner] = owned
			}
			owned[req.Path] = struct{}{}
		}
	}
	return &coordination.RemoveResponse{Code: coordination.Ok}, events, undo
}

// set replaces a node's data under an optional version check. Called with
// k.mu held.
func (k *Keeper) set(req *coordination.SetRequest) (*coordination.SetResponse, []event, func()) {
	if code := validatePath(req.Path); code != coordination.Ok {
		return &coordination.SetResponse{Code: coordination.BadArguments}, nil, nil
	}

	target := findNode(k.root, splitPath(req.Path))
	if target == nil {
		return &coordination.SetResponse{Code: coordination.NoNode}, nil, nil
	}
	if req.Version != coordination.AnyVersion && req.Version != target.stat.Version {
		return &coordination.SetResponse{Code: coordination.BadVersion}, nil, nil
	}

	prevData := target.data
	prevStat := target.stat
	k.zxid++
	target.data = req.Data
	target.stat.Version++
	target.stat.Mzxid = k.zxid
	target.stat.DataLength = int32(len(req.Data))

	events := []event{{path: req.Path, typ: coordination.EventChanged}}
	undo := func() {
		target.data = prevData
		target.stat = prevStat
	}
	return &coordination.SetResponse{Code: coordination.Ok, Stat: target.stat}, events, undo
}

// check asserts a node's version inside a multi transaction. Called with
// k.mu held.
func (k *Keeper) check(req *coordination.CheckRequest) *coordination.CheckResponse {
	target := findNode(k.root, splitPath(req.Path))
	if target == nil {
		return &coordination.CheckResponse{Code: coordination.NoNode}
	}
	if req.Version != coordination.AnyVersion && req.Version != target.stat.Version {
		return &coordination.CheckResponse{Code: coordination.BadVersion}
	}
	return &coordination.CheckResponse{Code: coordination.Ok}
}

// get reads a node, registering a one-shot data watch on success. Called
// with k.mu held.
func (k *Keeper) get(sessionID int64, req *coordination.GetRequest, onWatch coordination.WatchFn) *coordination.GetResponse {
	target := findNode(k.root, splitPath(req.Path))
	if target == nil {
		return &coordination.GetResponse{Code: coordination.NoNode}
	}
	if onWatch != nil {
		k.dataWatches[req.Path] = append(k.dataWatches[req.Path], watch{fn: onWatch, sessionID: sessionID})
	}
	return &coordination.GetResponse{Code: coordination.Ok, Data: target.data, Stat: target.stat}
}

// exists reports a node's stat. The watch, unlike get, is registered even
// when the node is missing, so the caller learns about a later creation.
// Called with k.mu held.
func (k *Keeper) exists(sessionID int64, req *coordination.ExistsRequest, onWatch coordination.WatchFn) *coordination.ExistsResponse {
	if onWatch != nil {
		k.dataWatches[req.Path] = append(k.dataWatches[req.Path], watch{fn: onWatch, sessionID: sessionID})
	}
	target := findNode(k.root, splitPath(req.Path))
	if target == nil {
		return &coordination.ExistsResponse{Code: coordination.NoNode}
	}
	return &coordination.ExistsResponse{Code: coordination.Ok, Stat: target.stat}
}

// list returns the sorted child names, registering a one-shot child watch on
// success. Called with k.mu held.
func (k *Keeper) list(sessionID int64, req *coordination.ListRequest, onWatch coordination.WatchFn) *coordination.ListResponse {
	target := findNode(k.root, splitPath(req.Path))
	if target == nil {
		return &coordination.ListResponse{Code: coordination.NoNode}
	}
	names := make([]string, 0, len(target.children))
	for name := range target.children {
		names = append(names, name)
	}
	sort.Strings(names)
	if onWatch != nil {
		k.childWatches[req.Path] = append(k.childWatches[req.Path], watch{fn: onWatch, sessionID: sessionID})
	}
	return &coordination.ListResponse{Code: coordination.Ok, Names: names, Stat: target.stat}
}

// multi applies the sub-operations as one atomic unit. On the first failure
// every applied operation is undone in reverse order; the failing operation
// reports its own code, operations before it report Ok and operations after
// it report RuntimeInconsistency, and the whole response carries the failing
// code. Watches fire only if the transaction commits. Called with k.mu held.
func (k *Keeper) multi(sessionID int64, req *coordination.MultiRequest) (*coordination.MultiResponse, []event) {
	responses := make([]coordination.Response, 0, len(req.Ops))
	var undos []func()
	var events []event

	failed := coordination.Ok
	failedAt := -1
	for i, op := range req.Ops {
		var resp coordination.Response
		var undo func()
		var evs []event

		switch typed := op.(type) {
		case *coordination.CreateRequest:
			resp, evs, undo = k.create(sessionID, typed)
		case *coordination.RemoveRequest:
			resp, evs, undo = k.remove(typed)
		case *coordination.SetRequest:
			resp, evs, undo = k.set(typed)
		case *coordination.CheckRequest:
			resp = k.check(typed)
		default:
			resp = &coordination.CheckResponse{Code: coordination.BadArguments}
		}

		responses = append(responses, resp)
		if resp.Err() != coordination.Ok {
			failed = resp.Err()
			failedAt = i
			break
		}
		if undo != nil {
			undos = append(undos, undo)
		}
		events = append(events, evs...)
	}

	if failed == coordination.Ok {
		return &coordination.MultiResponse{Code: coordination.Ok, Responses: responses}, events
	}

	for i := len(undos) - 1; i >= 0; i-- {
		undos[i]()
	}
	for i := failedAt + 1; i < len(req.Ops); i++ {
		responses = append(responses, &coordination.CheckResponse{Code: coordination.RuntimeInconsistency})
	}
	return &coordination.MultiResponse{Code: failed, Responses: responses}, nil
}

// expireSession removes the session's ephemeral nodes, fires the affected
// watches and notifies the session's own watches that the session is gone.
func (k *Keeper) expireSession(sessionID int64) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for path := range k.ephemerals[sessionID] {
		resp, events, _ := k.remove(&coordination.RemoveRequest{Path: path, Version: coordination.AnyVersion})
		if resp.Code == coordination.Ok {
			k.fire(events)
		}
	}
	delete(k.ephemerals, sessionID)

	// Watches owned by the dying session fire a session event so blocked
	// waiters fail fast instead of waiting for a node change that will never
	// be delivered.
	expireWatches := func(registry map[string][]watch) {
		for path, watches := range registry {
			var kept []watch
			for _, w := range watches {
				if w.sessionID == sessionID {
					w.fn(coordination.WatchEvent{Type: coordination.EventSession, Path: path, Code: coordination.SessionExpired})
				} else {
					kept = append(kept, w)
				}
			}
			if len(kept) == 0 {
				delete(registry, path)
			} else {
				registry[path] = kept
			}
		}
	}
	expireWatches(k.dataWatches)
	expireWatches(k.childWatches)
}
