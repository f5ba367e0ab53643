// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handler.
const (
	BadSubprotocolError = 3000 // Client connected without the taboo subprotocol.
	RateLimitedError    = 3008 // Client kept flooding past its message budget.
)

// Subprotocol is the websocket subprotocol clients must request.
const Subprotocol = "taboo"
