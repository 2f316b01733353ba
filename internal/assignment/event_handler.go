package assignment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/assignment-tracker/internal/core/events"
)

// EventHandler writes one audit log line per committed assignment change.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{
		logger: logger.With("component", "audit"),
	}
}

func (h *EventHandler) HandleAssignmentChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(*events.AssignmentEvent)
	if !ok {
		h.logger.Error("invalid event type for assignment audit handler", "event_type", event.EventType())
		return fmt.Errorf("expected AssignmentEvent, got %T", event)
	}

	h.logger.InfoContext(ctx, "assignment audit",
		"action", event.EventType(),
		"assignment_id", changed.AssignmentID,
		"employee_id", changed.EmployeeID,
		"origin_location_id", changed.OriginLocationID,
		"destination_location_id", changed.DestinationLocationID,
		"event_id", changed.EventID(),
		"occurred_at", changed.OccurredAt())
	return nil
}

func (h *EventHandler) HandleEmployeeRelocated(ctx context.Context, event events.Event) error {
	moved, ok := event.(*events.EmployeeRelocatedEvent)
	if !ok {
		h.logger.Error("invalid event type for relocation audit handler", "event_type", event.EventType())
		return fmt.Errorf("expected EmployeeRelocatedEvent, got %T", event)
	}

	h.logger.InfoContext(ctx, "placement audit",
		"employee_id", moved.EmployeeID,
		"from_location_id", moved.FromLocationID,
		"to_location_id", moved.ToLocationID,
		"event_id", moved.EventID(),
		"occurred_at", moved.OccurredAt())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	for _, t := range events.AssignmentEventTypes {
		eventBus.Subscribe(t, h.HandleAssignmentChanged)
	}
	eventBus.Subscribe(events.EventTypeEmployeeRelocated, h.HandleEmployeeRelocated)

	h.logger.Info("assignment event handlers registered",
		"handlers", append(append([]string{}, events.AssignmentEventTypes...), events.EventTypeEmployeeRelocated))
}
