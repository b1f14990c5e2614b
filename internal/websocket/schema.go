package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSetAnswer Action = "set_answer"
	ActionSubmit    Action = "submit"
	ActionPing      Action = "ping"
)

// RequestPayload carries every client-to-server message. Action selects
// the operation; QID and Value are only read for set_answer.
type RequestPayload struct {
	Action Action `json:"action"`
	QID    string `json:"q_id,omitempty"`
	Value  string `json:"value,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventAccepted  Event = "accepted"
	EventSubmitted Event = "submitted"
	EventPong      Event = "pong"
)

// AcceptedResponse acknowledges a captured answer. Acceptance means the
// answer map changed; the debounced autosave lands later.
type AcceptedResponse struct {
	Event Event  `json:"event"`
	QID   string `json:"q_id"`
}

// SubmittedResponse acknowledges a finished attempt.
type SubmittedResponse struct {
	Event Event `json:"event"`
}

// PongResponse answers a keepalive ping with the remaining seconds so
// the client clock can correct its drift.
type PongResponse struct {
	Event        Event   `json:"event"`
	RemainingSec float64 `json:"remaining_sec"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
