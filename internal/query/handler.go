package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	MethodGetAllErrors = "get_all_errors"
	MethodGetErrors    = "get_errors"
	MethodGetStats     = "get_stats"
)

// Request is one line of client input.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response is written back as one line.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

func failure(format string, args ...any) Response {
	return Response{Success: false, Data: nil, Error: fmt.Sprintf(format, args...)}
}

// Handle answers a single request against s.
func (s *Store) Handle(req Request) Response {
	switch req.Method {
	case MethodGetAllErrors:
		return Response{Success: true, Data: s.All()}
	case MethodGetErrors:
		var q Query
		params := bytes.TrimSpace(req.Params)
		if len(params) > 0 {
			if err := json.Unmarshal(params, &q); err != nil {
				return failure("Invalid query parameters: %v", err)
			}
		}
		return Response{Success: true, Data: s.Filter(q)}
	case MethodGetStats:
		return Response{Success: true, Data: s.Stats()}
	default:
		return failure("Unknown method: %s", req.Method)
	}
}
