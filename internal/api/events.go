package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/geo-process/internal/service"
)

// EventHandler streams execution events to Datastar clients via SSE.
type EventHandler struct {
	bus *service.EventBus
}

func NewEventHandler(bus *service.EventBus) *EventHandler {
	return &EventHandler{bus: bus}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	if h.bus == nil {
		return
	}
	huma.Get(api, "/api/v1/events", h.Events, huma.OperationTags("events"))
}

// Events patches a "lastExecution" signal for every finished execution until
// the client disconnects.
func (h *EventHandler) Events(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			r, w := humago.Unwrap(humaCtx)
			sse := datastar.NewSSE(w, r)

			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			for {
				select {
				case <-r.Context().Done():
					return
				case ev := <-ch:
					err := sse.MarshalAndPatchSignals(map[string]any{
						"lastExecution": ev,
					})
					if err != nil {
						return
					}
				}
			}
		},
	}, nil
}
