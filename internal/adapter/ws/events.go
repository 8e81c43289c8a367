package ws

import (
	"context"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/jaimani/ai-travel-demo/internal/port/broadcast"
)

// BroadcastEvent marshals a typed event and broadcasts it, routing by the
// payload's run ID when it carries one. It implements broadcast.Broadcaster.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		RunID:   runIDOf(payload),
		Payload: json.RawMessage(data),
	})
}

func runIDOf(payload any) string {
	switch p := payload.(type) {
	case broadcast.RunStep:
		return p.RunID
	case *broadcast.RunStep:
		return p.RunID
	case broadcast.RunFinished:
		return p.RunID
	case *broadcast.RunFinished:
		return p.RunID
	}
	return ""
}

var _ broadcast.Broadcaster = (*Hub)(nil)
