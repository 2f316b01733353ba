package sqlstore

import (
	"context"
	"errors"
	"strings"

	assignmentDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/assignment"
	employeeDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/employee"
	locationDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/location"
	"github.com/frahmantamala/assignment-tracker/internal/employee"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"gorm.io/gorm"
)

const joinedColumns = "employees.*, locations.name AS location_name, locations.region AS location_region"

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.RepositoryAPI {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Transaction(ctx context.Context, fn func(repo employee.RepositoryAPI) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&EmployeeRepository{db: tx})
	})
	return storage.TranslateError(err)
}

func (r *EmployeeRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&employeeDatamodel.Employee{}).
		Select(joinedColumns).
		Joins("LEFT JOIN locations ON locations.id = employees.current_location_id")
}

func (r *EmployeeRepository) Search(ctx context.Context, filter employee.SearchFilter) ([]*employeeDatamodel.Employee, error) {
	q := r.joined(ctx)

	if filter.Query != "" {
		pattern := containsPattern(filter.Query)
		q = q.Where(
			`(LOWER(employees.last_name) LIKE ? ESCAPE '\' OR LOWER(employees.first_name) LIKE ? ESCAPE '\' OR LOWER(employees.email) LIKE ? ESCAPE '\' OR LOWER(employees.id) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.LocationID != "" {
		q = q.Where("employees.current_location_id = ?", filter.LocationID)
	}
	if filter.Region != "" {
		q = q.Where("locations.region = ?", filter.Region)
	}
	if filter.JobTitle != "" {
		q = q.Where(`LOWER(employees.job_title) LIKE ? ESCAPE '\'`, containsPattern(filter.JobTitle))
	}
	if filter.Unassigned {
		q = q.Where("employees.current_location_id IS NULL")
	}

	var rows []*employeeDatamodel.Employee
	if err := q.Order("employees.last_name ASC, employees.first_name ASC, employees.id ASC").Find(&rows).Error; err != nil {
		return nil, storage.TranslateError(err)
	}
	return rows, nil
}

// containsPattern escapes LIKE wildcards and wraps s for a substring match.
func containsPattern(s string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.joined(ctx).Where("employees.id = ?", id).Take(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storage.TranslateError(err)
	}
	return &emp, nil
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).Take(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storage.TranslateError(err)
	}
	return &emp, nil
}

func (r *EmployeeRepository) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&employeeDatamodel.Employee{}).Pluck("id", &ids).Error; err != nil {
		return nil, storage.TranslateError(err)
	}
	return ids, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, emp *employeeDatamodel.Employee) error {
	return storage.TranslateError(r.db.WithContext(ctx).Create(emp).Error)
}

func (r *EmployeeRepository) Update(ctx context.Context, emp *employeeDatamodel.Employee) error {
	err := r.db.WithContext(ctx).Model(&employeeDatamodel.Employee{}).
		Where("id = ?", emp.ID).
		Updates(map[string]interface{}{
			"title":               emp.Title,
			"last_name":           emp.LastName,
			"first_name":          emp.FirstName,
			"email":               emp.Email,
			"job_title":           emp.JobTitle,
			"current_location_id": emp.CurrentLocationID,
		}).Error
	return storage.TranslateError(err)
}

func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	return storage.TranslateError(r.db.WithContext(ctx).Where("id = ?", id).Delete(&employeeDatamodel.Employee{}).Error)
}

func (r *EmployeeRepository) CountAssignments(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&assignmentDatamodel.Assignment{}).Where("employee_id = ?", id).Count(&n).Error
	return n, storage.TranslateError(err)
}

func (r *EmployeeRepository) LocationExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&locationDatamodel.Location{}).Where("id = ?", id).Count(&n).Error
	return n > 0, storage.TranslateError(err)
}
