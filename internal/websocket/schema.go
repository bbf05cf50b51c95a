package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventRoster Event = "roster"
	EventUpdate Event = "update"
	EventPong   Event = "pong"
)

// RosterResponse carries the initial seat-occupancy snapshot a monitor
// connection receives right after the upgrade.
type RosterResponse struct {
	Event  Event       `json:"event"`
	Roster interface{} `json:"roster"`
}

// UpdateResponse relays one live hall event. Payload is the raw JSON body
// published on the hall channel, passed through untouched.
type UpdateResponse struct {
	Event   Event  `json:"event"`
	Payload string `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
