package chat

// Request is the inbound body of POST /chat and of each websocket frame.
type Request struct {
	Message string `json:"message"`
}

// Reply carries a successful relay result.
type Reply struct {
	Reply string `json:"reply"`
}

// Frame is written back on the websocket for every inbound message.
type Frame struct {
	Type   string `json:"type"`
	Reply  string `json:"reply,omitempty"`
	Error  string `json:"error,omitempty"`
	Status int    `json:"status,omitempty"`
}
