package coordination

// Request is the closed set of operations that can be submitted to an Engine.
// Each operation kind has exactly one concrete type; composing them into a
// MultiRequest submits them as a single atomic unit.
type Request interface {
	// GetPath returns the path the operation targets. For a MultiRequest this
	// is the path of the first sub-operation, which is what error messages
	// about the whole batch reference.
	GetPath() string
	// OpName returns the operation name used in logs and session teardown
	// reasons, e.g. "Create" or "Multi".
	OpName() string

	isRequest()
}

type CreateRequest struct {
	Path string
	Data []byte
	Mode CreateMode
}

type RemoveRequest struct {
	Path    string
	Version int32
}

type SetRequest struct {
	Path    string
	Data    []byte
	Version int32
}

// CheckRequest asserts inside a multi transaction that a node exists at the
// given version without modifying it.
type CheckRequest struct {
	Path    string
	Version int32
}

type ExistsRequest struct {
	Path string
}

type GetRequest struct {
	Path string
}

type ListRequest struct {
	Path string
}

type MultiRequest struct {
	Ops []Request
}

func (r *CreateRequest) GetPath() string { return r.Path }
func (r *RemoveRequest) GetPath() string { return r.Path }
func (r *SetRequest) GetPath() string    { return r.Path }
func (r *CheckRequest) GetPath() string  { return r.Path }
func (r *ExistsRequest) GetPath() string { return r.Path }
func (r *GetRequest) GetPath() string    { return r.Path }
func (r *ListRequest) GetPath() string   { return r.Path }

func (r *MultiRequest) GetPath() string {
	if len(r.Ops) == 0 {
		return ""
	}
	return r.Ops[0].GetPath()
}

func (r *CreateRequest) OpName() string { return "Create" }
func (r *RemoveRequest) OpName() string { return "Remove" }
func (r *SetRequest) OpName() string    { return "Set" }
func (r *CheckRequest) OpName() string  { return "Check" }
func (r *ExistsRequest) OpName() string { return "Exists" }
func (r *GetRequest) OpName() string    { return "Get" }
func (r *ListRequest) OpName() string   { return "List" }
func (r *MultiRequest) OpName() string  { return "Multi" }

func (*CreateRequest) isRequest() {}
func (*RemoveRequest) isRequest() {}
func (*SetRequest) isRequest()    {}
func (*CheckRequest) isRequest()  {}
func (*ExistsRequest) isRequest() {}
func (*GetRequest) isRequest()    {}
func (*ListRequest) isRequest()   {}
func (*MultiRequest) isRequest()  {}

// NewCreateRequest builds a create sub-operation for use in a multi
// transaction.
func NewCreateRequest(path string, data []byte, mode CreateMode) Request {
	return &CreateRequest{Path: path, Data: data, Mode: mode}
}

// NewRemoveRequest builds a remove sub-operation for use in a multi
// transaction.
func NewRemoveRequest(path string, version int32) Request {
	return &RemoveRequest{Path: path, Version: version}
}

// NewSetRequest builds a set sub-operation for use in a multi transaction.
func NewSetRequest(path string, data []byte, version int32) Request {
	return &SetRequest{Path: path, Data: data, Version: version}
}

// NewCheckRequest builds a version assertion for use in a multi transaction.
func NewCheckRequest(path string, version int32) Request {
	return &CheckRequest{Path: path, Version: version}
}

// Response is the closed set of operation results. Every response carries a
// result code; payload fields are only meaningful when the code is Ok.
type Response interface {
	Err() Code

	isResponse()
}

type CreateResponse struct {
	Code        Code
	PathCreated string
}

type RemoveResponse struct {
	Code Code
}

type ExistsResponse struct {
	Code Code
	Stat Stat
}

type GetResponse struct {
	Code Code
	Data []byte
	Stat Stat
}

type SetResponse struct {
	Code Code
	Stat Stat
}

type ListResponse struct {
	Code  Code
	Names []string
	Stat  Stat
}

type CheckResponse struct {
	Code Code
}

type MultiResponse struct {
	Code Code
	// Responses holds one entry per sub-operation. On a user-error failure
	// the first entry with a non-Ok code identifies the operation that made
	// the transaction fail.
	Responses []Response
}

func (r *CreateResponse) Err() Code { return r.Code }
func (r *RemoveResponse) Err() Code { return r.Code }
func (r *ExistsResponse) Err() Code { return r.Code }
func (r *GetResponse) Err() Code    { return r.Code }
func (r *SetResponse) Err() Code    { return r.Code }
func (r *ListResponse) Err() Code   { return r.Code }
func (r *CheckResponse) Err() Code  { return r.Code }
func (r *MultiResponse) Err() Code  { return r.Code }

func (*CreateResponse) isResponse() {}
func (*RemoveResponse) isResponse() {}
func (*ExistsResponse) isResponse() {}
func (*GetResponse) isResponse()    {}
func (*SetResponse) isResponse()    {}
func (*ListResponse) isResponse()   {}
func (*CheckResponse) isResponse()  {}
func (*MultiResponse) isResponse()  {}
