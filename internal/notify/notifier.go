package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventAwardWon  EventType = "award.won"
	EventAwardLost EventType = "award.lost"
)

// Event is a domain event raised after an award is finalized. Delivery is
// best effort and happens outside the finalize transaction.
type Event struct {
	Type       EventType
	TenderID   uuid.UUID
	SupplierID uuid.UUID
	PONumber   string // set for award.won only
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier emits events to the structured log. Deployments with a real
// broker replace this with a publishing implementation.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	entry := n.log.Info().
		Str("event", string(event.Type)).
		Str("tender_id", event.TenderID.String()).
		Str("supplier_id", event.SupplierID.String())
	if event.PONumber != "" {
		entry = entry.Str("po_number", event.PONumber)
	}
	entry.Msg("award notification")
	return nil
}
