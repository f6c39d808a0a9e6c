// Package notifier fans lifecycle transition events out to interested humans.
// Delivery is best-effort and fully decoupled from the transition itself: a
// failed notification is logged and dropped, never rolled back into the store.
package notifier

import (
	"encoding/json"

	"meterstock/internal/lifecycle"

	"github.com/rs/zerolog/log"
)

// Notifier receives a committed transition event. Implementations must not
// block the caller for long and must swallow their own delivery failures.
type Notifier interface {
	Notify(event lifecycle.Event)
}

// Multi fans one event out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(event lifecycle.Event) {
	for _, n := range m {
		n.Notify(event)
	}
}

// broadcaster is the subset of the websocket hub the notifier needs.
type broadcaster interface {
	GetBroadcast() chan []byte
}

// HubNotifier pushes transition events to connected dashboards as JSON.
type HubNotifier struct {
	hub broadcaster
}

func NewHubNotifier(hub broadcaster) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Notify(event lifecycle.Event) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":  "request_transition",
		"event": event,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal transition event")
		return
	}
	// Non-blocking send: a dashboard that is not draining its feed must not
	// stall request processing.
	select {
	case n.hub.GetBroadcast() <- payload:
	default:
		log.Warn().Str("request_id", event.RequestID).Msg("Dropped transition broadcast, hub busy")
	}
}
