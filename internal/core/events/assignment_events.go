package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAssignmentCreated = "assignment.created"
	EventTypeAssignmentUpdated = "assignment.updated"
	EventTypeAssignmentDeleted = "assignment.deleted"
	EventTypeEmployeeRelocated = "employee.relocated"
)

// AssignmentEventTypes lists the events published for assignment mutations.
var AssignmentEventTypes = []string{
	EventTypeAssignmentCreated,
	EventTypeAssignmentUpdated,
	EventTypeAssignmentDeleted,
}

type AssignmentEvent struct {
	BaseEvent
	AssignmentID          string `json:"assignment_id"`
	EmployeeID            string `json:"employee_id"`
	OriginLocationID      string `json:"origin_location_id"`
	DestinationLocationID string `json:"destination_location_id"`
}

func NewAssignmentEvent(eventType, assignmentID, employeeID, originID, destinationID string) *AssignmentEvent {
	return &AssignmentEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"assignment_id":           assignmentID,
				"employee_id":             employeeID,
				"origin_location_id":      originID,
				"destination_location_id": destinationID,
			},
		},
		AssignmentID:          assignmentID,
		EmployeeID:            employeeID,
		OriginLocationID:      originID,
		DestinationLocationID: destinationID,
	}
}

// EmployeeRelocatedEvent reports a change of current location. Empty
// location identifiers mean "no location".
type EmployeeRelocatedEvent struct {
	BaseEvent
	EmployeeID     string `json:"employee_id"`
	FromLocationID string `json:"from_location_id"`
	ToLocationID   string `json:"to_location_id"`
}

func NewEmployeeRelocatedEvent(employeeID, fromID, toID string) *EmployeeRelocatedEvent {
	return &EmployeeRelocatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEmployeeRelocated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"employee_id":      employeeID,
				"from_location_id": fromID,
				"to_location_id":   toID,
			},
		},
		EmployeeID:     employeeID,
		FromLocationID: fromID,
		ToLocationID:   toID,
	}
}
