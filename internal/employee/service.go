package employee

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/assignment-tracker/internal"
	employeeDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/employee"
	"github.com/frahmantamala/assignment-tracker/internal/core/idgen"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

type RepositoryAPI interface {
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
	// Search applies every filter except Fuzzy; reads join the current location.
	Search(ctx context.Context, filter SearchFilter) ([]*employeeDatamodel.Employee, error)
	GetByID(ctx context.Context, id string) (*employeeDatamodel.Employee, error)
	GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error)
	IDs(ctx context.Context) ([]string, error)
	Create(ctx context.Context, emp *employeeDatamodel.Employee) error
	Update(ctx context.Context, emp *employeeDatamodel.Employee) error
	Delete(ctx context.Context, id string) error
	CountAssignments(ctx context.Context, id string) (int64, error)
	LocationExists(ctx context.Context, id string) (bool, error)
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

// List returns every employee, ordered by last then first name.
func (s *Service) List(ctx context.Context) ([]*Employee, error) {
	return s.Search(ctx, SearchFilter{})
}

func (s *Service) Search(ctx context.Context, filter SearchFilter) ([]*Employee, error) {
	filter.Query = strings.TrimSpace(filter.Query)

	repoFilter := filter
	if filter.Fuzzy {
		repoFilter.Query = ""
	}

	rows, err := s.repo.Search(ctx, repoFilter)
	if err != nil {
		s.logger.Error("failed to search employees", "error", err)
		return nil, err
	}

	employees := FromDataModels(rows)
	if filter.Fuzzy && filter.Query != "" {
		employees = fuzzyFilter(employees, filter.Query)
	}

	s.logger.Debug("employee search", "query", filter.Query, "fuzzy", filter.Fuzzy, "results", len(employees))
	return employees, nil
}

func fuzzyFilter(employees []*Employee, query string) []*Employee {
	matched := make([]*Employee, 0, len(employees))
	for _, e := range employees {
		candidates := []string{
			e.LastName,
			e.FirstName,
			e.FirstName + " " + e.LastName,
			e.LastName + " " + e.FirstName,
			e.Email,
			e.ID,
		}
		for _, c := range candidates {
			if fuzzy.MatchNormalizedFold(query, c) {
				matched = append(matched, e)
				break
			}
		}
	}
	return matched
}

func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get employee", "error", err, "employee_id", id)
		return nil, err
	}
	if row == nil {
		return nil, internal.NewNotFoundError("employee "+id+" not found", internal.ErrCodeEmployeeNotFound)
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateEmployeeDTO) (*Employee, error) {
	dto.normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Warn("employee validation failed", "error", err)
		return nil, err
	}

	emp := &Employee{
		ID:                dto.ID,
		Title:             dto.Title,
		LastName:          dto.LastName,
		FirstName:         dto.FirstName,
		Email:             dto.Email,
		JobTitle:          dto.JobTitle,
		CurrentLocationID: dto.CurrentLocationID,
	}

	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		if emp.ID == "" {
			id, err := s.ids.Next(idgen.PrefixEmployee, func() ([]string, error) { return repo.IDs(ctx) })
			if err != nil {
				return err
			}
			emp.ID = id
		} else {
			existing, err := repo.GetByID(ctx, emp.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return internal.NewConflictError("employee "+emp.ID+" already exists", internal.ErrCodeDuplicateID)
			}
		}

		if err := checkEmailFree(ctx, repo, emp.Email, ""); err != nil {
			return err
		}
		if err := checkLocation(ctx, repo, emp.CurrentLocationID); err != nil {
			return err
		}

		return repo.Create(ctx, ToDataModel(emp))
	})
	if err != nil {
		s.logger.Error("failed to create employee", "error", err, "employee_id", emp.ID)
		return nil, err
	}

	s.logger.Info("employee created", "employee_id", emp.ID, "location_id", emp.CurrentLocationID)
	return s.Get(ctx, emp.ID)
}

// Update replaces the employee's attributes. The placement can only be changed
// here while the employee has no assignment history; afterwards it follows
// the assignments.
func (s *Service) Update(ctx context.Context, id string, dto UpdateEmployeeDTO) (*Employee, error) {
	dto.normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Warn("employee validation failed", "error", err, "employee_id", id)
		return nil, err
	}

	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return internal.NewNotFoundError("employee "+id+" not found", internal.ErrCodeEmployeeNotFound)
		}

		if err := checkEmailFree(ctx, repo, dto.Email, id); err != nil {
			return err
		}

		placement := existing.CurrentLocationID
		if dto.CurrentLocationID != nil {
			requested := normalizeLocation(dto.CurrentLocationID)
			if !sameLocation(requested, existing.CurrentLocationID) {
				history, err := repo.CountAssignments(ctx, id)
				if err != nil {
					return err
				}
				if history > 0 {
					return internal.NewConflictError(
						"current location of employee "+id+" is managed by its assignments",
						internal.ErrCodePlacementLocked)
				}
				if err := checkLocation(ctx, repo, requested); err != nil {
					return err
				}
				placement = requested
			}
		}

		return repo.Update(ctx, &employeeDatamodel.Employee{
			ID:                id,
			Title:             dto.Title,
			LastName:          dto.LastName,
			FirstName:         dto.FirstName,
			Email:             dto.Email,
			JobTitle:          dto.JobTitle,
			CurrentLocationID: placement,
		})
	})
	if err != nil {
		s.logger.Error("failed to update employee", "error", err, "employee_id", id)
		return nil, err
	}

	s.logger.Info("employee updated", "employee_id", id)
	return s.Get(ctx, id)
}

// Delete removes an employee that no assignment references.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return internal.NewNotFoundError("employee "+id+" not found", internal.ErrCodeEmployeeNotFound)
		}

		history, err := repo.CountAssignments(ctx, id)
		if err != nil {
			return err
		}
		if history > 0 {
			return internal.NewReferentialIntegrityError(
				"employee "+id+" still has assignments",
				internal.ErrCodeEmployeeHasHistory,
			).WithDetails(map[string]int64{"assignments": history})
		}

		return repo.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("failed to delete employee", "error", err, "employee_id", id)
		return err
	}

	s.logger.Info("employee deleted", "employee_id", id)
	return nil
}

func checkEmailFree(ctx context.Context, repo RepositoryAPI, email, selfID string) error {
	other, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if other != nil && other.ID != selfID {
		return internal.NewConflictError("email "+email+" is already used by employee "+other.ID, internal.ErrCodeDuplicateEmail)
	}
	return nil
}

func checkLocation(ctx context.Context, repo RepositoryAPI, id *string) error {
	if id == nil {
		return nil
	}
	ok, err := repo.LocationExists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return internal.NewValidationFieldError("current_location_id", "location "+*id+" does not exist", internal.ErrCodeUnknownReference)
	}
	return nil
}

func sameLocation(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
