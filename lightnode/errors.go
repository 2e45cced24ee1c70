package lightnode

import (
	"errors"
	"fmt"

	"github.com/warpgate-labs/xcs-portal/entities"
)

var (
	// ErrNotReady marks a "result not available" response: retry later, the
	// node is not broken.
	ErrNotReady = errors.New("lightnode: result not available")

	// ErrQuorumUnavailable is raised only when zero members of a group
	// responded successfully.
	ErrQuorumUnavailable = errors.New("lightnode: no nodes responded")

	errMissingResult = errors.New("response carries neither result nor error")
)

// TransportError is a network-level failure talking to one node. Retryable,
// node-local, never aborts a broadcast.
type TransportError struct {
	Node string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("lightnode %v: transport error: %v", e.Node, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a structured error object returned by a node. A "result
// not available" protocol error matches ErrNotReady under errors.Is.
type ProtocolError struct {
	Node     string
	RPCError entities.RPCError
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("lightnode %v: rpc error %v: %v", e.Node, e.RPCError.Code, e.RPCError.Message)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrNotReady && e.RPCError.IsResultNotAvailable()
}

// DecodeError is a malformed response body from one node. Node-local,
// logged, excluded from merged results.
type DecodeError struct {
	Node string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("lightnode %v: decode error: %v", e.Node, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
