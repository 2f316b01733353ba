package location

import (
	"strings"

	locationDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/location"
)

// Location is a workplace an employee can be assigned to.
type Location struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

func NewLocation(id, name, region string) *Location {
	return &Location{
		ID:     strings.TrimSpace(id),
		Name:   strings.TrimSpace(name),
		Region: strings.TrimSpace(region),
	}
}

func ToDataModel(l *Location) *locationDatamodel.Location {
	return &locationDatamodel.Location{
		ID:     l.ID,
		Name:   l.Name,
		Region: l.Region,
	}
}

func FromDataModel(l *locationDatamodel.Location) *Location {
	return &Location{
		ID:     l.ID,
		Name:   l.Name,
		Region: l.Region,
	}
}

func FromDataModels(rows []*locationDatamodel.Location) []*Location {
	out := make([]*Location, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out
}
