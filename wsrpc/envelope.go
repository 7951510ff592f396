package wsrpc

import (
	"encoding/json"
	"fmt"
)

// errorMethod marks a response envelope carrying an application error.
const errorMethod = "error"

// Envelope is the wire frame exchanged with the clearnode. Every frame
// carries a request id and a method name; requests signed with the session
// key also carry a signature over the unsigned frame.
type Envelope struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	Sig    string          `json:"sig,omitempty"`
}

// RPCError is an application-level error reported by the remote side.
type RPCError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Result is the tagged outcome of one correlated request: either a payload
// or a remote error, decoded exactly once at the correlator boundary.
type Result struct {
	Method string
	Params json.RawMessage
	Err    *RPCError
}

// Decode unmarshals the payload into v. It fails when the result carries a
// remote error.
func (r Result) Decode(v interface{}) error {
	if r.Err != nil {
		return r.Err
	}
	if len(r.Params) == 0 {
		return fmt.Errorf("empty response payload")
	}
	return json.Unmarshal(r.Params, v)
}

func parseResult(env Envelope) Result {
	if env.Method != errorMethod {
		return Result{Method: env.Method, Params: env.Params}
	}

	rpcErr := &RPCError{Message: "unknown remote error"}
	if len(env.Params) > 0 {
		var parsed RPCError
		if err := json.Unmarshal(env.Params, &parsed); err == nil && parsed.Message != "" {
			rpcErr = &parsed
		}
	}
	return Result{Method: env.Method, Err: rpcErr}
}
