package session

import (
	"context"
	"encoding/json"
)

// MessageEnvelope wraps incoming workspace messages
type MessageEnvelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// ResponseEnvelope wraps responses sent back over the socket
type ResponseEnvelope struct {
	Action   string                 `json:"action"`
	Guidance *Guidance              `json:"guidance,omitempty"`
	Meta     map[string]interface{} `json:"meta"`
}

// Router dispatches envelopes to a workspace
type Router struct {
	workspace *Workspace
}

// NewRouter creates a router for one workspace
func NewRouter(w *Workspace) *Router {
	return &Router{workspace: w}
}

// Route handles one incoming envelope. Action failures become error
// responses, not transport errors: the socket stays up.
func (r *Router) Route(ctx context.Context, envelope *MessageEnvelope) *ResponseEnvelope {
	var dataMap map[string]interface{}
	if err := json.Unmarshal(envelope.Data, &dataMap); err != nil {
		dataMap = make(map[string]interface{})
	}

	guidance, err := r.workspace.HandleAction(ctx, envelope.Action, dataMap)
	if err != nil {
		return &ResponseEnvelope{
			Action: envelope.Action,
			Meta: map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			},
		}
	}

	return &ResponseEnvelope{
		Action:   envelope.Action,
		Guidance: guidance,
		Meta: map[string]interface{}{
			"success": true,
		},
	}
}
