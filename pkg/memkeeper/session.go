package memkeeper

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
)

const submissionQueueSize = 1024

// Session is one client's engine handle onto the shared tree. It satisfies
// coordination.Engine: submissions are queued and applied by a single worker
// goroutine, so completions are delivered in submission order.
type Session struct {
	keeper    *Keeper
	log       *zap.Logger
	sessionID int64

	mu      sync.Mutex
	expired bool
	subs    chan submission
	quit    chan struct{}
}

type submission struct {
	req        coordination.Request
	onComplete func(coordination.Response)
	onWatch    coordination.WatchFn
}

// NewSession registers a new session against the tree and starts its worker.
func (k *Keeper) NewSession() *Session {
	k.mu.Lock()
	k.nextSessionID++
	id := k.nextSessionID
	k.mu.Unlock()

	s := &Session{
		keeper:    k,
		log:       k.log.With(zap.Int64("session_id", id)),
		sessionID: id,
		subs:      make(chan submission, submissionQueueSize),
		quit:      make(chan struct{}),
	}
	go s.run()
	return s
}

// Submit queues an operation. On an expired session the completion is
// delivered immediately with SessionExpired.
func (s *Session) Submit(req coordination.Request, onComplete func(coordination.Response), onWatch coordination.WatchFn) {
	s.mu.Lock()
	if s.expired {
		s.mu.Unlock()
		if onComplete != nil {
			onComplete(errorResponse(req, coordination.SessionExpired))
		}
		return
	}
	s.subs <- submission{req: req, onComplete: onComplete, onWatch: onWatch}
	s.mu.Unlock()
}

// IsExpired reports whether the session has been terminated.
func (s *Session) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

// SessionID returns the server-assigned session identifier.
func (s *Session) SessionID() int64 {
	return s.sessionID
}

// Terminate expires the session: pending and future submissions complete
// with SessionExpired, ephemeral nodes are released and the session's
// watches fire a session event.
func (s *Session) Terminate(reason string) {
	s.mu.Lock()
	if s.expired {
		s.mu.Unlock()
		return
	}
	s.expired = true
	close(s.quit)
	s.mu.Unlock()

	s.log.Info("session terminated", zap.String("reason", reason))
	s.keeper.expireSession(s.sessionID)
}

func (s *Session) run() {
	for {
		select {
		case <-s.quit:
			s.drain()
			return
		case sub := <-s.subs:
			select {
			case <-s.quit:
				s.complete(sub, errorResponse(sub.req, coordination.SessionExpired))
			default:
				s.complete(sub, s.apply(sub))
			}
		}
	}
}

// drain flushes whatever was queued before termination won the race.
func (s *Session) drain() {
	for {
		select {
		case sub := <-s.subs:
			s.complete(sub, errorResponse(sub.req, coordination.SessionExpired))
		default:
			return
		}
	}
}

func (s *Session) complete(sub submission, resp coordination.Response) {
	if sub.onComplete != nil {
		sub.onComplete(resp)
	}
}

// apply executes one operation against the shared tree and fires the watches
// the mutation triggered.
func (s *Session) apply(sub submission) coordination.Response {
	k := s.keeper
	k.mu.Lock()
	defer k.mu.Unlock()

	var resp coordination.Response
	var events []event
	switch req := sub.req.(type) {
	case *coordination.CreateRequest:
		resp, events, _ = k.create(s.sessionID, req)
	case *coordination.RemoveRequest:
		resp, events, _ = k.remove(req)
	case *coordination.SetRequest:
		resp, events, _ = k.set(req)
	case *coordination.CheckRequest:
		resp = k.check(req)
	case *coordination.GetRequest:
		resp = k.get(s.sessionID, req, sub.onWatch)
	case *coordination.ExistsRequest:
		resp = k.exists(s.sessionID, req, sub.onWatch)
	case *coordination.ListRequest:
		resp = k.list(s.sessionID, req, sub.onWatch)
	case *coordination.MultiRequest:
		resp, events = k.multi(s.sessionID, req)
	default:
		resp = errorResponse(sub.req, coordination.Unimplemented)
	}
	k.fire(events)
	return resp
}

// errorResponse builds the response variant matching the request kind, with
// only the code populated.
func errorResponse(req coordination.Request, code coordination.Code) coordination.Response {
	switch req.(type) {
	case *coordination.CreateRequest:
		return &coordination.CreateResponse{Code: code}
	case *coordination.RemoveRequest:
		return &coordination.RemoveResponse{Code: code}
	case *coordination.SetRequest:
		return &coordination.SetResponse{Code: code}
	case *coordination.CheckRequest:
		return &coordination.CheckResponse{Code: code}
	case *coordination.GetRequest:
		return &coordination.GetResponse{Code: code}
	case *coordination.ExistsRequest:
		return &coordination.ExistsResponse{Code: code}
	case *coordination.ListRequest:
		return &coordination.ListResponse{Code: code}
	case *coordination.MultiRequest:
		return &coordination.MultiResponse{Code: code}
	}
	return &coordination.CheckResponse{Code: code}
}
