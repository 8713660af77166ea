package lsp

import "encoding/json"

const (
	methodInitialize         = "initialize"
	methodInitialized        = "initialized"
	methodPublishDiagnostics = "textDocument/publishDiagnostics"

	// diagnosticSource tags every diagnostic injected by the proxy.
	diagnosticSource = "dart-re-analyzer"
)

// rpcHeader is the part of a JSON-RPC message the proxy routes on.
type rpcHeader struct {
	Method string `json:"method,omitempty"`
}

type position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

type lspRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

type lspDiagnostic struct {
	Range    lspRange `json:"range"`
	Severity int      `json:"severity"`
	Code     string   `json:"code"`
	Source   string   `json:"source"`
	Message  string   `json:"message"`
}

// Fields other than the ones the proxy touches are kept as raw JSON so a
// rewritten message carries them through unchanged.
type rawObject map[string]json.RawMessage
