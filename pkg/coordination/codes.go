package coordination

import "fmt"

// Code is a result code returned by the coordination service. The values
// match the wire-level ZooKeeper error codes so that logs and dumps line up
// with what the server reports.
type Code int32

const (
	Ok Code = 0

	// System and session level errors. These indicate something is wrong with
	// the session or the connection rather than with the request itself.
	SystemError          Code = -1
	RuntimeInconsistency Code = -2
	DataInconsistency    Code = -3
	ConnectionLoss       Code = -4
	MarshallingError     Code = -5
	Unimplemented        Code = -6
	OperationTimeout     Code = -7
	BadArguments         Code = -8
	InvalidState         Code = -9

	// API level errors. These are attributable to the request the caller made.
	APIError                Code = -100
	NoNode                  Code = -101
	NoAuth                  Code = -102
	BadVersion              Code = -103
	NoChildrenForEphemerals Code = -108
	NodeExists              Code = -110
	NotEmpty                Code = -111
	SessionExpired          Code = -112
	InvalidACL              Code = -114
	AuthFailed              Code = -115
	SessionMoved            Code = -118
)

// IsUserError reports whether the code describes an application level
// condition (missing node, version conflict, etc.) rather than a session or
// connection failure. User errors are returned as values by the Try APIs and,
// in multi transactions, implicate a specific sub-operation.
func IsUserError(code Code) bool {
	switch code {
	case NoNode, BadVersion, NoChildrenForEphemerals, NodeExists, NotEmpty:
		return true
	}
	return false
}

// IsHardwareError reports whether the code describes a session or connection
// class failure. These are never returned as values; every API surfaces them
// as errors.
func IsHardwareError(code Code) bool {
	switch code {
	case InvalidState, SessionExpired, SessionMoved, ConnectionLoss, MarshallingError, OperationTimeout:
		return true
	}
	return false
}

func (c Code) String() string {
	switch c {
	case Ok:
		return "Ok"
	case SystemError:
		return "SystemError"
	case RuntimeInconsistency:
		return "RuntimeInconsistency"
	case DataInconsistency:
		return "DataInconsistency"
	case ConnectionLoss:
		return "ConnectionLoss"
	case MarshallingError:
		return "MarshallingError"
	case Unimplemented:
		return "Unimplemented"
	case OperationTimeout:
		return "OperationTimeout"
	case BadArguments:
		return "BadArguments"
	case InvalidState:
		return "InvalidState"
	case APIError:
		return "APIError"
	case NoNode:
		return "NoNode"
	case NoAuth:
		return "NoAuth"
	case BadVersion:
		return "BadVersion"
	case NoChildrenForEphemerals:
		return "NoChildrenForEphemerals"
	case NodeExists:
		return "NodeExists"
	case NotEmpty:
		return "NotEmpty"
	case SessionExpired:
		return "SessionExpired"
	case InvalidACL:
		return "InvalidACL"
	case AuthFailed:
		return "AuthFailed"
	case SessionMoved:
		return "SessionMoved"
	}
	return fmt.Sprintf("Unknown(%d)", int32(c))
}
