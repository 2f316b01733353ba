package location

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/assignment-tracker/internal"
	locationDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/location"
	"github.com/frahmantamala/assignment-tracker/internal/core/idgen"
)

type RepositoryAPI interface {
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
	List(ctx context.Context, filter ListFilter) ([]*locationDatamodel.Location, error)
	GetByID(ctx context.Context, id string) (*locationDatamodel.Location, error)
	IDs(ctx context.Context) ([]string, error)
	Regions(ctx context.Context) ([]string, error)
	Create(ctx context.Context, loc *locationDatamodel.Location) error
	Update(ctx context.Context, loc *locationDatamodel.Location) error
	Delete(ctx context.Context, id string) error
	// References counts employees placed at the location and assignments using it.
	References(ctx context.Context, id string) (employees int64, assignments int64, err error)
}

type Service struct {
	repo   RepositoryAPI
	ids    idgen.Generator
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, ids idgen.Generator, logger *slog.Logger) *Service {
	if ids == nil {
		ids = idgen.Sequential{}
	}
	return &Service{
		repo:   repo,
		ids:    ids,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Location, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list locations", "error", err)
		return nil, err
	}
	return FromDataModels(rows), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Location, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get location", "error", err, "location_id", id)
		return nil, err
	}
	if row == nil {
		return nil, internal.NewNotFoundError("location "+id+" not found", internal.ErrCodeLocationNotFound)
	}
	return FromDataModel(row), nil
}

func (s *Service) Regions(ctx context.Context) ([]string, error) {
	regions, err := s.repo.Regions(ctx)
	if err != nil {
		s.logger.Error("failed to list regions", "error", err)
		return nil, err
	}
	return regions, nil
}

func (s *Service) Create(ctx context.Context, dto CreateLocationDTO) (*Location, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("location validation failed", "error", err)
		return nil, err
	}

	loc := NewLocation(dto.ID, dto.Name, dto.Region)

	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		if loc.ID == "" {
			id, err := s.ids.Next(idgen.PrefixLocation, func() ([]string, error) { return repo.IDs(ctx) })
			if err != nil {
				return err
			}
			loc.ID = id
		} else {
			existing, err := repo.GetByID(ctx, loc.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return internal.NewConflictError("location "+loc.ID+" already exists", internal.ErrCodeDuplicateID)
			}
		}
		return repo.Create(ctx, ToDataModel(loc))
	})
	if err != nil {
		s.logger.Error("failed to create location", "error", err, "location_id", loc.ID)
		return nil, err
	}

	s.logger.Info("location created", "location_id", loc.ID, "region", loc.Region)
	return loc, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateLocationDTO) (*Location, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("location validation failed", "error", err, "location_id", id)
		return nil, err
	}

	loc := NewLocation(id, dto.Name, dto.Region)

	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return internal.NewNotFoundError("location "+id+" not found", internal.ErrCodeLocationNotFound)
		}
		return repo.Update(ctx, ToDataModel(loc))
	})
	if err != nil {
		s.logger.Error("failed to update location", "error", err, "location_id", id)
		return nil, err
	}

	s.logger.Info("location updated", "location_id", id)
	return loc, nil
}

// Delete removes a location nobody references. Employees placed there or
// assignments naming it as origin or destination block the deletion.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return internal.NewNotFoundError("location "+id+" not found", internal.ErrCodeLocationNotFound)
		}

		employees, assignments, err := repo.References(ctx, id)
		if err != nil {
			return err
		}
		if employees > 0 || assignments > 0 {
			return internal.NewReferentialIntegrityError(
				"location "+id+" is still referenced by employees or assignments",
				internal.ErrCodeLocationInUse,
			).WithDetails(map[string]int64{"employees": employees, "assignments": assignments})
		}

		return repo.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("failed to delete location", "error", err, "location_id", id)
		return err
	}

	s.logger.Info("location deleted", "location_id", id)
	return nil
}
