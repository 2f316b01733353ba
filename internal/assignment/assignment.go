package assignment

import (
	"time"

	"github.com/frahmantamala/assignment-tracker/internal/core/common/validation"
	assignmentDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/assignment"
)

type Assignment struct {
	ID                    string
	EmployeeID            string
	OriginLocationID      string
	DestinationLocationID string
	AssignmentDate        time.Time
	ServiceStartDate      time.Time
}

// AssignmentResponse is the wire shape, with dates as YYYY-MM-DD.
type AssignmentResponse struct {
	ID                    string `json:"id"`
	EmployeeID            string `json:"employee_id"`
	OriginLocationID      string `json:"origin_location_id"`
	DestinationLocationID string `json:"destination_location_id"`
	AssignmentDate        string `json:"assignment_date"`
	ServiceStartDate      string `json:"service_start_date"`
}

func (a *Assignment) ToResponse() *AssignmentResponse {
	return &AssignmentResponse{
		ID:                    a.ID,
		EmployeeID:            a.EmployeeID,
		OriginLocationID:      a.OriginLocationID,
		DestinationLocationID: a.DestinationLocationID,
		AssignmentDate:        a.AssignmentDate.Format(validation.DateLayout),
		ServiceStartDate:      a.ServiceStartDate.Format(validation.DateLayout),
	}
}

func ToResponses(list []*Assignment) []*AssignmentResponse {
	out := make([]*AssignmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, a.ToResponse())
	}
	return out
}

func ToDataModel(a *Assignment) *assignmentDatamodel.Assignment {
	return &assignmentDatamodel.Assignment{
		ID:                    a.ID,
		EmployeeID:            a.EmployeeID,
		OriginLocationID:      a.OriginLocationID,
		DestinationLocationID: a.DestinationLocationID,
		AssignmentDate:        validation.Day(a.AssignmentDate),
		ServiceStartDate:      validation.Day(a.ServiceStartDate),
	}
}

func FromDataModel(a *assignmentDatamodel.Assignment) *Assignment {
	return &Assignment{
		ID:                    a.ID,
		EmployeeID:            a.EmployeeID,
		OriginLocationID:      a.OriginLocationID,
		DestinationLocationID: a.DestinationLocationID,
		AssignmentDate:        validation.Day(a.AssignmentDate),
		ServiceStartDate:      validation.Day(a.ServiceStartDate),
	}
}

func FromDataModels(rows []*assignmentDatamodel.Assignment) []*Assignment {
	out := make([]*Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out
}
