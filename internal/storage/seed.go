package storage

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/frahmantamala/assignment-tracker/internal"
	assignmentDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/assignment"
	employeeDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/employee"
	locationDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/location"
	"github.com/frahmantamala/assignment-tracker/pkg/logger"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures/demo.yml
var fixtureFS embed.FS

const demoFixture = "fixtures/demo.yml"

type Fixture struct {
	Locations []struct {
		ID     string `yaml:"id"`
		Name   string `yaml:"name"`
		Region string `yaml:"region"`
	} `yaml:"locations"`
	Employees []struct {
		ID        string `yaml:"id"`
		Title     string `yaml:"title"`
		LastName  string `yaml:"last_name"`
		FirstName string `yaml:"first_name"`
		Email     string `yaml:"email"`
		JobTitle  string `yaml:"job_title"`
		Location  string `yaml:"location"`
	} `yaml:"employees"`
	Assignments []struct {
		ID               string `yaml:"id"`
		Employee         string `yaml:"employee"`
		Origin           string `yaml:"origin"`
		Destination      string `yaml:"destination"`
		AssignmentDate   string `yaml:"assignment_date"`
		ServiceStartDate string `yaml:"service_start_date"`
	} `yaml:"assignments"`
}

// LoadFixture decodes the embedded demonstration data.
func LoadFixture() (*Fixture, error) {
	raw, err := fixtureFS.ReadFile(demoFixture)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// SeedIfEmpty inserts the demonstration rows when the locations table is empty
// and reports whether it did. Seeded employees end up at the destination of
// their latest assignment.
func SeedIfEmpty(ctx context.Context, db *gorm.DB) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&locationDatamodel.Location{}).Count(&count).Error; err != nil {
		return false, TranslateError(err)
	}
	if count > 0 {
		return false, nil
	}

	fixture, err := LoadFixture()
	if err != nil {
		return false, internal.NewStorageError("failed to load demonstration data", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, l := range fixture.Locations {
			row := &locationDatamodel.Location{ID: l.ID, Name: l.Name, Region: l.Region}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("seed location %s: %w", l.ID, err)
			}
		}

		for _, e := range fixture.Employees {
			row := &employeeDatamodel.Employee{
				ID:        e.ID,
				Title:     e.Title,
				LastName:  e.LastName,
				FirstName: e.FirstName,
				Email:     e.Email,
				JobTitle:  e.JobTitle,
			}
			if e.Location != "" {
				loc := e.Location
				row.CurrentLocationID = &loc
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("seed employee %s: %w", e.ID, err)
			}
		}

		for _, a := range fixture.Assignments {
			assigned, err := time.ParseInLocation("2006-01-02", a.AssignmentDate, time.UTC)
			if err != nil {
				return fmt.Errorf("seed assignment %s: %w", a.ID, err)
			}
			started, err := time.ParseInLocation("2006-01-02", a.ServiceStartDate, time.UTC)
			if err != nil {
				return fmt.Errorf("seed assignment %s: %w", a.ID, err)
			}
			row := &assignmentDatamodel.Assignment{
				ID:                    a.ID,
				EmployeeID:            a.Employee,
				OriginLocationID:      a.Origin,
				DestinationLocationID: a.Destination,
				AssignmentDate:        assigned,
				ServiceStartDate:      started,
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("seed assignment %s: %w", a.ID, err)
			}
		}

		return recomputePlacements(tx)
	})
	if err != nil {
		return false, TranslateError(err)
	}

	logger.From(ctx).Info("seeded demonstration data",
		"locations", len(fixture.Locations),
		"employees", len(fixture.Employees),
		"assignments", len(fixture.Assignments))
	return true, nil
}

// recomputePlacements sets every employee with history to the destination of
// their latest assignment.
func recomputePlacements(tx *gorm.DB) error {
	return tx.Exec(`
		UPDATE employees SET current_location_id = (
			SELECT a.destination_location_id FROM assignments a
			WHERE a.employee_id = employees.id
			ORDER BY a.assignment_date DESC, a.service_start_date DESC, a.id DESC
			LIMIT 1
		)
		WHERE EXISTS (SELECT 1 FROM assignments a WHERE a.employee_id = employees.id)`).Error
}

// Clear removes every row, children first.
func Clear(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&assignmentDatamodel.Assignment{},
			&employeeDatamodel.Employee{},
			&locationDatamodel.Location{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return TranslateError(err)
}
