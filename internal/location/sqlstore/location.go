package sqlstore

import (
	"context"
	"errors"

	assignmentDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/assignment"
	employeeDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/employee"
	locationDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/location"
	"github.com/frahmantamala/assignment-tracker/internal/location"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"gorm.io/gorm"
)

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) location.RepositoryAPI {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Transaction(ctx context.Context, fn func(repo location.RepositoryAPI) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LocationRepository{db: tx})
	})
	return storage.TranslateError(err)
}

func (r *LocationRepository) List(ctx context.Context, filter location.ListFilter) ([]*locationDatamodel.Location, error) {
	var rows []*locationDatamodel.Location
	q := r.db.WithContext(ctx).Order("name ASC, id ASC")
	if filter.Region != "" {
		q = q.Where("region = ?", filter.Region)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, storage.TranslateError(err)
	}
	return rows, nil
}

func (r *LocationRepository) GetByID(ctx context.Context, id string) (*locationDatamodel.Location, error) {
	var loc locationDatamodel.Location
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&loc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storage.TranslateError(err)
	}
	return &loc, nil
}

func (r *LocationRepository) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&locationDatamodel.Location{}).Pluck("id", &ids).Error; err != nil {
		return nil, storage.TranslateError(err)
	}
	return ids, nil
}

func (r *LocationRepository) Regions(ctx context.Context) ([]string, error) {
	var regions []string
	err := r.db.WithContext(ctx).Model(&locationDatamodel.Location{}).
		Distinct("region").Order("region ASC").Pluck("region", &regions).Error
	if err != nil {
		return nil, storage.TranslateError(err)
	}
	return regions, nil
}

func (r *LocationRepository) Create(ctx context.Context, loc *locationDatamodel.Location) error {
	return storage.TranslateError(r.db.WithContext(ctx).Create(loc).Error)
}

func (r *LocationRepository) Update(ctx context.Context, loc *locationDatamodel.Location) error {
	err := r.db.WithContext(ctx).Model(&locationDatamodel.Location{}).
		Where("id = ?", loc.ID).
		Updates(map[string]interface{}{"name": loc.Name, "region": loc.Region}).Error
	return storage.TranslateError(err)
}

func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	return storage.TranslateError(r.db.WithContext(ctx).Where("id = ?", id).Delete(&locationDatamodel.Location{}).Error)
}

func (r *LocationRepository) References(ctx context.Context, id string) (int64, int64, error) {
	var employees, assignments int64
	db := r.db.WithContext(ctx)

	if err := db.Model(&employeeDatamodel.Employee{}).Where("current_location_id = ?", id).Count(&employees).Error; err != nil {
		return 0, 0, storage.TranslateError(err)
	}
	err := db.Model(&assignmentDatamodel.Assignment{}).
		Where("origin_location_id = ? OR destination_location_id = ?", id, id).
		Count(&assignments).Error
	if err != nil {
		return 0, 0, storage.TranslateError(err)
	}
	return employees, assignments, nil
}
