package coordination

// Engine is the asynchronous protocol engine the client is built on top of.
// Implementations own the connection, heartbeats and wire encoding; the
// client only submits operations and consumes completions.
//
// Submit never blocks on the network. The completion callback is invoked
// exactly once on the engine's delivery goroutine, and completions for one
// session are delivered in submission order. The watch callback, when
// provided with a read operation, registers a one-shot watch on the target
// path.
//
// Terminate tears the session down immediately. Operations still in flight
// complete with a session class error; ephemeral nodes owned by the session
// are released. A terminated engine reports IsExpired and never recovers; a
// caller that needs a working session again builds a new engine with the
// same configuration.
type Engine interface {
	Submit(req Request, onComplete func(Response), onWatch WatchFn)
	IsExpired() bool
	SessionID() int64
	Terminate(reason string)
}
