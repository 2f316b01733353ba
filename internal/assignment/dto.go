package assignment

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/core/common/validation"
)

const maxIDLength = 64

// CreateAssignmentDTO records a move of an employee between two locations.
// ID is optional and issued when empty.
type CreateAssignmentDTO struct {
	ID                    string `json:"id,omitempty"`
	EmployeeID            string `json:"employee_id"`
	OriginLocationID      string `json:"origin_location_id"`
	DestinationLocationID string `json:"destination_location_id"`
	AssignmentDate        string `json:"assignment_date"`
	ServiceStartDate      string `json:"service_start_date"`
}

func (dto *CreateAssignmentDTO) Validate(now time.Time) error {
	v := validation.NewValidator()
	v.Field("id", dto.ID).MaxLength(maxIDLength)
	addMoveRules(v, dto.EmployeeID, dto.OriginLocationID, dto.DestinationLocationID, dto.AssignmentDate, dto.ServiceStartDate, now)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (dto *CreateAssignmentDTO) normalize() {
	dto.ID = strings.TrimSpace(dto.ID)
	dto.EmployeeID = strings.TrimSpace(dto.EmployeeID)
	dto.OriginLocationID = strings.TrimSpace(dto.OriginLocationID)
	dto.DestinationLocationID = strings.TrimSpace(dto.DestinationLocationID)
	dto.AssignmentDate = strings.TrimSpace(dto.AssignmentDate)
	dto.ServiceStartDate = strings.TrimSpace(dto.ServiceStartDate)
}

// UpdateAssignmentDTO replaces every attribute of an existing assignment.
type UpdateAssignmentDTO struct {
	EmployeeID            string `json:"employee_id"`
	OriginLocationID      string `json:"origin_location_id"`
	DestinationLocationID string `json:"destination_location_id"`
	AssignmentDate        string `json:"assignment_date"`
	ServiceStartDate      string `json:"service_start_date"`
}

func (dto *UpdateAssignmentDTO) Validate(now time.Time) error {
	v := validation.NewValidator()
	addMoveRules(v, dto.EmployeeID, dto.OriginLocationID, dto.DestinationLocationID, dto.AssignmentDate, dto.ServiceStartDate, now)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (dto *UpdateAssignmentDTO) normalize() {
	dto.EmployeeID = strings.TrimSpace(dto.EmployeeID)
	dto.OriginLocationID = strings.TrimSpace(dto.OriginLocationID)
	dto.DestinationLocationID = strings.TrimSpace(dto.DestinationLocationID)
	dto.AssignmentDate = strings.TrimSpace(dto.AssignmentDate)
	dto.ServiceStartDate = strings.TrimSpace(dto.ServiceStartDate)
}

func addMoveRules(v *validation.ValidationBuilder, employeeID, originID, destinationID, assignmentDate, serviceStartDate string, now time.Time) {
	v.Field("employee_id", employeeID).Required().MaxLength(maxIDLength)
	v.Field("origin_location_id", originID).Required().MaxLength(maxIDLength)
	v.Field("destination_location_id", destinationID).Required().MaxLength(maxIDLength).
		Differs(originID, "destination must differ from origin", errors.ErrCodeSameLocation)
	v.Field("assignment_date", assignmentDate).Required().Date().NotFuture(now)
	v.Field("service_start_date", serviceStartDate).Required().Date().NotBefore(assignmentDate, "assignment_date")
}

// RelocateDTO moves an employee from wherever they are now. OriginLocationID
// is only read when the employee has no current location. AssignmentDate
// defaults to today and ServiceStartDate to AssignmentDate.
type RelocateDTO struct {
	ID                    string `json:"id,omitempty"`
	DestinationLocationID string `json:"destination_location_id"`
	OriginLocationID      string `json:"origin_location_id,omitempty"`
	AssignmentDate        string `json:"assignment_date,omitempty"`
	ServiceStartDate      string `json:"service_start_date,omitempty"`
}

// ListFilter narrows List. From and To bound the assignment date, inclusive.
// Recent sorts newest first; Limit caps the result when positive.
type ListFilter struct {
	EmployeeID string
	From       string
	To         string
	Recent     bool
	Limit      int
}

func (f ListFilter) Validate() error {
	v := validation.NewValidator()
	v.Field("from", f.From).Date()
	v.Field("to", f.To).Date().NotBefore(f.From, "from")
	v.Field("limit", f.Limit).Custom(func(value interface{}) *errors.AppError {
		if n, ok := value.(int); ok && n < 0 {
			return errors.NewValidationFieldError("limit", "limit cannot be negative", errors.ErrCodeValidationFailed)
		}
		return nil
	})

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Range returns the parsed bounds; zero values mean unbounded.
func (f ListFilter) Range() (from, to time.Time) {
	if f.From != "" {
		from, _ = validation.ParseDate(f.From)
	}
	if f.To != "" {
		to, _ = validation.ParseDate(f.To)
	}
	return from, to
}

type AssignmentsResponse struct {
	Assignments []*AssignmentResponse `json:"assignments"`
	Total       int                   `json:"total"`
}

type DriftResponse struct {
	Drifts []*Drift `json:"drifts"`
	Total  int      `json:"total"`
	// Applied is true when the drifts were corrected.
	Applied bool `json:"applied"`
}
