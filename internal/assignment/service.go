package assignment

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/core/common/validation"
	assignmentDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/assignment"
	"github.com/frahmantamala/assignment-tracker/internal/core/events"
	"github.com/frahmantamala/assignment-tracker/internal/core/idgen"
	"github.com/frahmantamala/assignment-tracker/pkg/logger"
)

type RepositoryAPI interface {
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
	List(ctx context.Context, filter ListFilter) ([]*assignmentDatamodel.Assignment, error)
	GetByID(ctx context.Context, id string) (*assignmentDatamodel.Assignment, error)
	IDs(ctx context.Context) ([]string, error)
	Create(ctx context.Context, a *assignmentDatamodel.Assignment) error
	Update(ctx context.Context, a *assignmentDatamodel.Assignment) error
	Delete(ctx context.Context, id string) error
	// History returns every assignment of one employee, in any order.
	History(ctx context.Context, employeeID string) ([]*assignmentDatamodel.Assignment, error)
	// EmployeeLocation reports whether the employee exists and where they are.
	EmployeeLocation(ctx context.Context, employeeID string) (bool, *string, error)
	SetEmployeeLocation(ctx context.Context, employeeID string, locationID *string) error
	// Placements maps every employee id to its stored current location.
	Placements(ctx context.Context) (map[string]*string, error)
	LocationExists(ctx context.Context, id string) (bool, error)
}

// Publisher delivers domain events once a mutation is committed.
type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	ids       idgen.Generator
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, ids idgen.Generator, publisher Publisher, logger *slog.Logger) *Service {
	if ids == nil {
		ids = idgen.Sequential{}
	}
	return &Service{
		repo:      repo,
		ids:       ids,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the clock used for the "not in the future" rule.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Assignment, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list assignments", "error", err)
		return nil, err
	}
	return FromDataModels(rows), nil
}

// ListForEmployee returns the history of one employee, failing when the
// employee does not exist.
func (s *Service) ListForEmployee(ctx context.Context, employeeID string, filter ListFilter) ([]*Assignment, error) {
	exists, _, err := s.repo.EmployeeLocation(ctx, employeeID)
	if err != nil {
		s.logger.Error("failed to look up employee", "error", err, "employee_id", employeeID)
		return nil, err
	}
	if !exists {
		return nil, internal.NewNotFoundError("employee "+employeeID+" not found", internal.ErrCodeEmployeeNotFound)
	}

	filter.EmployeeID = employeeID
	return s.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (*Assignment, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get assignment", "error", err, "assignment_id", id)
		return nil, err
	}
	if row == nil {
		return nil, internal.NewNotFoundError("assignment "+id+" not found", internal.ErrCodeAssignmentNotFound)
	}
	return FromDataModel(row), nil
}

// Create validates and inserts an assignment, then moves the employee to the
// destination of their latest assignment. Both writes share a transaction.
func (s *Service) Create(ctx context.Context, dto CreateAssignmentDTO) (*Assignment, error) {
	dto.normalize()
	if err := dto.Validate(s.now()); err != nil {
		s.logger.Warn("assignment validation failed", "error", err)
		return nil, err
	}

	a := &Assignment{
		ID:                    dto.ID,
		EmployeeID:            dto.EmployeeID,
		OriginLocationID:      dto.OriginLocationID,
		DestinationLocationID: dto.DestinationLocationID,
	}
	a.AssignmentDate, _ = validation.ParseDate(dto.AssignmentDate)
	a.ServiceStartDate, _ = validation.ParseDate(dto.ServiceStartDate)

	var relocation *Relocation
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		if a.ID == "" {
			id, err := s.ids.Next(idgen.PrefixAssignment, func() ([]string, error) { return repo.IDs(ctx) })
			if err != nil {
				return err
			}
			a.ID = id
		} else {
			existing, err := repo.GetByID(ctx, a.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return internal.NewConflictError("assignment "+a.ID+" already exists", internal.ErrCodeDuplicateID)
			}
		}

		exists, current, err := repo.EmployeeLocation(ctx, a.EmployeeID)
		if err != nil {
			return err
		}
		if !exists {
			return internal.NewValidationFieldError("employee_id", "employee "+a.EmployeeID+" does not exist", internal.ErrCodeUnknownReference)
		}
		if err := checkLocations(ctx, repo, a); err != nil {
			return err
		}
		if current != nil && *current != a.OriginLocationID {
			return internal.NewValidationFieldError("origin_location_id",
				"origin must be the employee's current location "+*current,
				internal.ErrCodeOriginMismatch)
		}

		if err := repo.Create(ctx, ToDataModel(a)); err != nil {
			return err
		}

		relocation, err = recompute(ctx, repo, a.EmployeeID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to create assignment", "error", err, "employee_id", a.EmployeeID)
		return nil, err
	}

	s.logger.Info("assignment created",
		"assignment_id", a.ID,
		"employee_id", a.EmployeeID,
		"origin_location_id", a.OriginLocationID,
		"destination_location_id", a.DestinationLocationID)

	s.publish(ctx, events.NewAssignmentEvent(events.EventTypeAssignmentCreated, a.ID, a.EmployeeID, a.OriginLocationID, a.DestinationLocationID))
	s.publishRelocations(ctx, relocation)
	return a, nil
}

// Update replaces an assignment and recomputes the placement of its employee,
// and of the previous employee when the row changed hands.
func (s *Service) Update(ctx context.Context, id string, dto UpdateAssignmentDTO) (*Assignment, error) {
	dto.normalize()
	if err := dto.Validate(s.now()); err != nil {
		s.logger.Warn("assignment validation failed", "error", err, "assignment_id", id)
		return nil, err
	}

	a := &Assignment{
		ID:                    id,
		EmployeeID:            dto.EmployeeID,
		OriginLocationID:      dto.OriginLocationID,
		DestinationLocationID: dto.DestinationLocationID,
	}
	a.AssignmentDate, _ = validation.ParseDate(dto.AssignmentDate)
	a.ServiceStartDate, _ = validation.ParseDate(dto.ServiceStartDate)

	var relocations []*Relocation
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return internal.NewNotFoundError("assignment "+id+" not found", internal.ErrCodeAssignmentNotFound)
		}

		exists, _, err := repo.EmployeeLocation(ctx, a.EmployeeID)
		if err != nil {
			return err
		}
		if !exists {
			return internal.NewValidationFieldError("employee_id", "employee "+a.EmployeeID+" does not exist", internal.ErrCodeUnknownReference)
		}
		if err := checkLocations(ctx, repo, a); err != nil {
			return err
		}

		if err := repo.Update(ctx, ToDataModel(a)); err != nil {
			return err
		}

		moved, err := recompute(ctx, repo, a.EmployeeID)
		if err != nil {
			return err
		}
		relocations = append(relocations, moved)

		if existing.EmployeeID != a.EmployeeID {
			previous, err := recompute(ctx, repo, existing.EmployeeID)
			if err != nil {
				return err
			}
			relocations = append(relocations, previous)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to update assignment", "error", err, "assignment_id", id)
		return nil, err
	}

	s.logger.Info("assignment updated", "assignment_id", id, "employee_id", a.EmployeeID)

	s.publish(ctx, events.NewAssignmentEvent(events.EventTypeAssignmentUpdated, a.ID, a.EmployeeID, a.OriginLocationID, a.DestinationLocationID))
	s.publishRelocations(ctx, relocations...)
	return a, nil
}

// Delete removes an assignment; the employee falls back to the destination of
// their new latest assignment, or to no location.
func (s *Service) Delete(ctx context.Context, id string) error {
	var (
		removed    *assignmentDatamodel.Assignment
		relocation *Relocation
	)
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return internal.NewNotFoundError("assignment "+id+" not found", internal.ErrCodeAssignmentNotFound)
		}
		removed = existing

		if err := repo.Delete(ctx, id); err != nil {
			return err
		}

		relocation, err = recompute(ctx, repo, existing.EmployeeID)
		return err
	})
	if err != nil {
		s.logger.Error("failed to delete assignment", "error", err, "assignment_id", id)
		return err
	}

	s.logger.Info("assignment deleted", "assignment_id", id, "employee_id", removed.EmployeeID)

	s.publish(ctx, events.NewAssignmentEvent(events.EventTypeAssignmentDeleted, removed.ID, removed.EmployeeID, removed.OriginLocationID, removed.DestinationLocationID))
	s.publishRelocations(ctx, relocation)
	return nil
}

// Relocate records a move from the employee's current location to a new one.
func (s *Service) Relocate(ctx context.Context, employeeID string, dto RelocateDTO) (*Assignment, error) {
	exists, current, err := s.repo.EmployeeLocation(ctx, employeeID)
	if err != nil {
		s.logger.Error("failed to look up employee", "error", err, "employee_id", employeeID)
		return nil, err
	}
	if !exists {
		return nil, internal.NewNotFoundError("employee "+employeeID+" not found", internal.ErrCodeEmployeeNotFound)
	}

	origin := deref(current)
	if origin == "" {
		origin = dto.OriginLocationID
	}

	assignmentDate := dto.AssignmentDate
	if assignmentDate == "" {
		assignmentDate = validation.Day(s.now()).Format(validation.DateLayout)
	}
	serviceStartDate := dto.ServiceStartDate
	if serviceStartDate == "" {
		serviceStartDate = assignmentDate
	}

	return s.Create(ctx, CreateAssignmentDTO{
		ID:                    dto.ID,
		EmployeeID:            employeeID,
		OriginLocationID:      origin,
		DestinationLocationID: dto.DestinationLocationID,
		AssignmentDate:        assignmentDate,
		ServiceStartDate:      serviceStartDate,
	})
}

// Audit lists employees whose stored location differs from their history.
func (s *Service) Audit(ctx context.Context) ([]*Drift, error) {
	drifts, err := audit(ctx, s.repo)
	if err != nil {
		s.logger.Error("failed to audit placements", "error", err)
		return nil, err
	}
	return drifts, nil
}

// Reconcile corrects every drift in one transaction and returns what it fixed.
func (s *Service) Reconcile(ctx context.Context) ([]*Drift, error) {
	var drifts []*Drift
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		var err error
		drifts, err = audit(ctx, repo)
		if err != nil {
			return err
		}
		for _, d := range drifts {
			if err := repo.SetEmployeeLocation(ctx, d.EmployeeID, d.Expected); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to reconcile placements", "error", err)
		return nil, err
	}

	s.logger.Info("placements reconciled", "corrected", len(drifts))
	for _, d := range drifts {
		s.publishRelocations(ctx, &Relocation{EmployeeID: d.EmployeeID, From: d.Stored, To: d.Expected})
	}
	return drifts, nil
}

func checkLocations(ctx context.Context, repo RepositoryAPI, a *Assignment) error {
	refs := []struct{ field, id string }{
		{"origin_location_id", a.OriginLocationID},
		{"destination_location_id", a.DestinationLocationID},
	}
	for _, ref := range refs {
		ok, err := repo.LocationExists(ctx, ref.id)
		if err != nil {
			return err
		}
		if !ok {
			return internal.NewValidationFieldError(ref.field, "location "+ref.id+" does not exist", internal.ErrCodeUnknownReference)
		}
	}
	return nil
}

// publish runs after commit; a failing subscriber never undoes the mutation.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		logger.FromOr(ctx, s.logger).Warn("event delivery failed", "error", err, "event_type", event.EventType(), "event_id", event.EventID())
	}
}

func (s *Service) publishRelocations(ctx context.Context, relocations ...*Relocation) {
	for _, r := range relocations {
		if r == nil {
			continue
		}
		logger.FromOr(ctx, s.logger).Info("employee relocated",
			"employee_id", r.EmployeeID,
			"from_location_id", deref(r.From),
			"to_location_id", deref(r.To))
		s.publish(ctx, events.NewEmployeeRelocatedEvent(r.EmployeeID, deref(r.From), deref(r.To)))
	}
}
