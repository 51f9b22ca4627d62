package coordination

// Stat holds the metadata the server tracks for every node. Version counters
// are used for optimistic concurrency checks: passing the version from a
// previous read to a conditional operation makes it fail with BadVersion if
// anyone else modified the node in between.
type Stat struct {
	Czxid          int64
	Mzxid          int64
	Ctime          int64
	Mtime          int64
	Version        int32
	Cversion       int32
	Aversion       int32
	EphemeralOwner int64
	DataLength     int32
	NumChildren    int32
	Pzxid          int64
}

// AnyVersion disables the version check on conditional operations.
const AnyVersion int32 = -1

// CreateMode encodes two independent bits of a node to be created: whether
// its lifetime is tied to the creating session, and whether the server
// appends a monotonically increasing sequence number to its name.
type CreateMode int32

const (
	ModePersistent           CreateMode = 0
	ModeEphemeral            CreateMode = 1
	ModePersistentSequential CreateMode = 2
	ModeEphemeralSequential  CreateMode = 3
)

// IsEphemeral reports whether nodes created with this mode are destroyed when
// the owning session ends.
func (m CreateMode) IsEphemeral() bool {
	return m&1 != 0
}

// IsSequential reports whether the server assigns a sequence suffix to the
// node name.
func (m CreateMode) IsSequential() bool {
	return m&2 != 0
}

func (m CreateMode) String() string {
	switch m {
	case ModePersistent:
		return "Persistent"
	case ModeEphemeral:
		return "Ephemeral"
	case ModePersistentSequential:
		return "PersistentSequential"
	case ModeEphemeralSequential:
		return "EphemeralSequential"
	}
	return "Unknown"
}

// EventType describes what kind of state change fired a watch.
type EventType int32

const (
	EventCreated EventType = 1
	EventDeleted EventType = 2
	EventChanged EventType = 3
	EventChild   EventType = 4
	EventSession EventType = -1
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "Created"
	case EventDeleted:
		return "Deleted"
	case EventChanged:
		return "Changed"
	case EventChild:
		return "Child"
	case EventSession:
		return "Session"
	}
	return "Unknown"
}

// WatchEvent is delivered to a watch callback when the watched path changes
// state. Watches are one-shot: after an event is delivered the registration
// is gone and has to be re-established by a new read.
type WatchEvent struct {
	Type EventType
	Path string
	Code Code
}

// WatchFn is the callback shape for watch notifications. It is invoked on the
// engine's delivery goroutine, so it must not block.
type WatchFn func(WatchEvent)
