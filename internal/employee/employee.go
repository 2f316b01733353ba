package employee

import (
	"strings"

	employeeDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/employee"
)

const (
	TitleMr   = "Mr"
	TitleMme  = "Mme"
	TitleMlle = "Mlle"
)

var Titles = []string{TitleMr, TitleMme, TitleMlle}

type Employee struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	LastName          string  `json:"last_name"`
	FirstName         string  `json:"first_name"`
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	JobTitle          string  `json:"job_title"`
	CurrentLocationID *string `json:"current_location_id"`
	LocationName      *string `json:"location_name,omitempty"`
	LocationRegion    *string `json:"location_region,omitempty"`
}

func (e *Employee) IsAssigned() bool {
	return e.CurrentLocationID != nil
}

// FormatFullName renders "M. RAKOTO Jean": the courtesy title abbreviated,
// the last name upper-cased.
func FormatFullName(title, lastName, firstName string) string {
	prefix := title
	if title == TitleMr {
		prefix = "M."
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{prefix, strings.ToUpper(lastName), firstName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		ID:                e.ID,
		Title:             e.Title,
		LastName:          e.LastName,
		FirstName:         e.FirstName,
		Email:             e.Email,
		JobTitle:          e.JobTitle,
		CurrentLocationID: e.CurrentLocationID,
	}
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	return &Employee{
		ID:                e.ID,
		Title:             e.Title,
		LastName:          e.LastName,
		FirstName:         e.FirstName,
		FullName:          FormatFullName(e.Title, e.LastName, e.FirstName),
		Email:             e.Email,
		JobTitle:          e.JobTitle,
		CurrentLocationID: e.CurrentLocationID,
		LocationName:      e.LocationName,
		LocationRegion:    e.LocationRegion,
	}
}

func FromDataModels(rows []*employeeDatamodel.Employee) []*Employee {
	out := make([]*Employee, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out
}
