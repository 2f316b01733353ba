package sqlstore

import (
	"context"
	"errors"

	"github.com/frahmantamala/assignment-tracker/internal/assignment"
	assignmentDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/assignment"
	employeeDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/employee"
	locationDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/location"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"gorm.io/gorm"
)

const (
	chronological = "assignment_date ASC, service_start_date ASC, id ASC"
	newestFirst   = "assignment_date DESC, service_start_date DESC, id DESC"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) assignment.RepositoryAPI {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Transaction(ctx context.Context, fn func(repo assignment.RepositoryAPI) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AssignmentRepository{db: tx})
	})
	return storage.TranslateError(err)
}

func (r *AssignmentRepository) List(ctx context.Context, filter assignment.ListFilter) ([]*assignmentDatamodel.Assignment, error) {
	q := r.db.WithContext(ctx).Model(&assignmentDatamodel.Assignment{})

	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	from, to := filter.Range()
	if !from.IsZero() {
		q = q.Where("assignment_date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("assignment_date <= ?", to)
	}

	if filter.Recent {
		q = q.Order(newestFirst)
	} else {
		q = q.Order(chronological)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []*assignmentDatamodel.Assignment
	if err := q.Find(&rows).Error; err != nil {
		return nil, storage.TranslateError(err)
	}
	return rows, nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*assignmentDatamodel.Assignment, error) {
	var row assignmentDatamodel.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storage.TranslateError(err)
	}
	return &row, nil
}

func (r *AssignmentRepository) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&assignmentDatamodel.Assignment{}).Pluck("id", &ids).Error; err != nil {
		return nil, storage.TranslateError(err)
	}
	return ids, nil
}

func (r *AssignmentRepository) Create(ctx context.Context, a *assignmentDatamodel.Assignment) error {
	return storage.TranslateError(r.db.WithContext(ctx).Create(a).Error)
}

func (r *AssignmentRepository) Update(ctx context.Context, a *assignmentDatamodel.Assignment) error {
	err := r.db.WithContext(ctx).Model(&assignmentDatamodel.Assignment{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"employee_id":             a.EmployeeID,
			"origin_location_id":      a.OriginLocationID,
			"destination_location_id": a.DestinationLocationID,
			"assignment_date":         a.AssignmentDate,
			"service_start_date":      a.ServiceStartDate,
		}).Error
	return storage.TranslateError(err)
}

func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	return storage.TranslateError(r.db.WithContext(ctx).Where("id = ?", id).Delete(&assignmentDatamodel.Assignment{}).Error)
}

func (r *AssignmentRepository) History(ctx context.Context, employeeID string) ([]*assignmentDatamodel.Assignment, error) {
	var rows []*assignmentDatamodel.Assignment
	err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).Order(chronological).Find(&rows).Error
	if err != nil {
		return nil, storage.TranslateError(err)
	}
	return rows, nil
}

func (r *AssignmentRepository) EmployeeLocation(ctx context.Context, employeeID string) (bool, *string, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Select("id", "current_location_id").Where("id = ?", employeeID).Take(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, nil
		}
		return false, nil, storage.TranslateError(err)
	}
	return true, emp.CurrentLocationID, nil
}

func (r *AssignmentRepository) SetEmployeeLocation(ctx context.Context, employeeID string, locationID *string) error {
	err := r.db.WithContext(ctx).Model(&employeeDatamodel.Employee{}).
		Where("id = ?", employeeID).
		Update("current_location_id", locationID).Error
	return storage.TranslateError(err)
}

func (r *AssignmentRepository) Placements(ctx context.Context) (map[string]*string, error) {
	var rows []employeeDatamodel.Employee
	if err := r.db.WithContext(ctx).Select("id", "current_location_id").Find(&rows).Error; err != nil {
		return nil, storage.TranslateError(err)
	}

	placements := make(map[string]*string, len(rows))
	for _, e := range rows {
		placements[e.ID] = e.CurrentLocationID
	}
	return placements, nil
}

func (r *AssignmentRepository) LocationExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&locationDatamodel.Location{}).Where("id = ?", id).Count(&n).Error
	return n > 0, storage.TranslateError(err)
}
