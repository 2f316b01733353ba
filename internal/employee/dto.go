package employee

import (
	"strings"

	errors "github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/core/common/validation"
)

const (
	maxIDLength    = 64
	maxNameLength  = 100
	maxEmailLength = 255
)

// CreateEmployeeDTO carries a new employee. ID is optional and issued when
// empty; CurrentLocationID is the initial placement and may be omitted.
type CreateEmployeeDTO struct {
	ID                string  `json:"id,omitempty"`
	Title             string  `json:"title"`
	LastName          string  `json:"last_name"`
	FirstName         string  `json:"first_name"`
	Email             string  `json:"email"`
	JobTitle          string  `json:"job_title"`
	CurrentLocationID *string `json:"current_location_id,omitempty"`
}

func (dto *CreateEmployeeDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("id", dto.ID).MaxLength(maxIDLength)
	addPersonRules(v, dto.Title, dto.LastName, dto.FirstName, dto.Email, dto.JobTitle)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (dto *CreateEmployeeDTO) normalize() {
	dto.ID = strings.TrimSpace(dto.ID)
	dto.Title = strings.TrimSpace(dto.Title)
	dto.LastName = strings.TrimSpace(dto.LastName)
	dto.FirstName = strings.TrimSpace(dto.FirstName)
	dto.Email = validation.NormalizeEmail(dto.Email)
	dto.JobTitle = strings.TrimSpace(dto.JobTitle)
	dto.CurrentLocationID = normalizeLocation(dto.CurrentLocationID)
}

// UpdateEmployeeDTO replaces the employee's attributes. CurrentLocationID nil
// leaves the placement alone; an empty string clears it.
type UpdateEmployeeDTO struct {
	Title             string  `json:"title"`
	LastName          string  `json:"last_name"`
	FirstName         string  `json:"first_name"`
	Email             string  `json:"email"`
	JobTitle          string  `json:"job_title"`
	CurrentLocationID *string `json:"current_location_id,omitempty"`
}

func (dto *UpdateEmployeeDTO) Validate() error {
	v := validation.NewValidator()
	addPersonRules(v, dto.Title, dto.LastName, dto.FirstName, dto.Email, dto.JobTitle)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (dto *UpdateEmployeeDTO) normalize() {
	dto.Title = strings.TrimSpace(dto.Title)
	dto.LastName = strings.TrimSpace(dto.LastName)
	dto.FirstName = strings.TrimSpace(dto.FirstName)
	dto.Email = validation.NormalizeEmail(dto.Email)
	dto.JobTitle = strings.TrimSpace(dto.JobTitle)
}

func addPersonRules(v *validation.ValidationBuilder, title, lastName, firstName, email, jobTitle string) {
	v.Field("title", strings.TrimSpace(title)).Required().OneOf(errors.ErrCodeInvalidTitle, Titles...)
	v.Field("last_name", lastName).Required().MaxLength(maxNameLength)
	v.Field("first_name", firstName).Required().MaxLength(maxNameLength)
	v.Field("email", email).Required().MaxLength(maxEmailLength).Email()
	v.Field("job_title", jobTitle).Required().MaxLength(maxNameLength)
}

func normalizeLocation(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SearchFilter narrows Search. Empty fields match everything.
type SearchFilter struct {
	// Query is matched as a case-insensitive substring of last name, first
	// name, email and identifier.
	Query      string
	LocationID string
	Region     string
	JobTitle   string
	Unassigned bool
	// Fuzzy matches Query in order, ignoring case and accents, instead of as a substring.
	Fuzzy bool
}

type EmployeesResponse struct {
	Employees []*Employee `json:"employees"`
	Total     int         `json:"total"`
}
