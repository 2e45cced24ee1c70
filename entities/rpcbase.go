package entities

import "strings"

// ErrCodeResultNotAvailable is returned by a lightnode when the result for a
// messageID has not been produced yet. It is a wait state, not a failure.
const ErrCodeResultNotAvailable = -32603

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) IsResultNotAvailable() bool {
	return e.Code == ErrCodeResultNotAvailable && strings.Contains(e.Message, "result not available")
}

type RPCBaseRes struct {
	JSONRPC  string    `json:"jsonrpc"`
	Version  string    `json:"version,omitempty"`
	ID       int       `json:"id"`
	RPCError *RPCError `json:"error,omitempty"`
}
