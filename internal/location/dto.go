package location

import (
	"github.com/frahmantamala/assignment-tracker/internal/core/common/validation"
)

const (
	maxIDLength   = 64
	maxNameLength = 100
)

// CreateLocationDTO carries a new location. ID is optional and issued when empty.
type CreateLocationDTO struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

func (dto *CreateLocationDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("id", dto.ID).MaxLength(maxIDLength)
	v.Field("name", dto.Name).Required().MaxLength(maxNameLength)
	v.Field("region", dto.Region).Required().MaxLength(maxNameLength)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type UpdateLocationDTO struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

func (dto *UpdateLocationDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(maxNameLength)
	v.Field("region", dto.Region).Required().MaxLength(maxNameLength)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Region string
}

type LocationsResponse struct {
	Locations []*Location `json:"locations"`
}

type RegionsResponse struct {
	Regions []string `json:"regions"`
}
