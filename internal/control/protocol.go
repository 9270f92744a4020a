package control

import "encoding/json"

// Methods served on the control socket.
const (
	MethodStatus = "status"
	MethodNotify = "notify"
	MethodQuit   = "quit"
)

// Request is a single JSON request line from a client.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     int             `json:"id,omitempty"`
}

// Response answers a Request.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// StatusResponse describes the running shell.
type StatusResponse struct {
	Phase          string `json:"phase"`
	Ready          bool   `json:"ready"`
	StatusText     string `json:"status_text,omitempty"`
	StatusSubtext  string `json:"status_subtext,omitempty"`
	PendingVersion string `json:"pending_version,omitempty"`
	Uptime         string `json:"uptime"`
	StartTime      string `json:"start_time"`
	PID            int    `json:"pid"`
}

// NotifyParams carries one lifecycle notification. Payload is passed to the
// controller unchanged.
type NotifyParams struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
