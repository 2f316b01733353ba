package assignment

import (
	"context"
	"sort"

	assignmentDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/assignment"
)

// Relocation is a change of an employee's current location.
type Relocation struct {
	EmployeeID string
	From       *string
	To         *string
}

// Drift is an employee whose stored location disagrees with their history.
type Drift struct {
	EmployeeID string  `json:"employee_id"`
	Stored     *string `json:"stored_location_id"`
	Expected   *string `json:"expected_location_id"`
}

// Later reports whether a sorts after b on (assignment date, service start
// date, id).
func Later(a, b *assignmentDatamodel.Assignment) bool {
	if !a.AssignmentDate.Equal(b.AssignmentDate) {
		return a.AssignmentDate.After(b.AssignmentDate)
	}
	if !a.ServiceStartDate.Equal(b.ServiceStartDate) {
		return a.ServiceStartDate.After(b.ServiceStartDate)
	}
	return a.ID > b.ID
}

// Latest returns the row that decides the employee's placement, or nil.
func Latest(rows []*assignmentDatamodel.Assignment) *assignmentDatamodel.Assignment {
	var latest *assignmentDatamodel.Assignment
	for _, r := range rows {
		if latest == nil || Later(r, latest) {
			latest = r
		}
	}
	return latest
}

// CurrentLocation is the destination of the latest row, or nil without history.
func CurrentLocation(rows []*assignmentDatamodel.Assignment) *string {
	latest := Latest(rows)
	if latest == nil {
		return nil
	}
	dest := latest.DestinationLocationID
	return &dest
}

// recompute aligns the employee's stored location with their history. It must
// run on the repository of the transaction that changed the history.
func recompute(ctx context.Context, repo RepositoryAPI, employeeID string) (*Relocation, error) {
	exists, stored, err := repo.EmployeeLocation(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	history, err := repo.History(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	expected := CurrentLocation(history)
	if sameLocation(stored, expected) {
		return nil, nil
	}
	if err := repo.SetEmployeeLocation(ctx, employeeID, expected); err != nil {
		return nil, err
	}
	return &Relocation{EmployeeID: employeeID, From: stored, To: expected}, nil
}

// audit compares every employee with history against the consistency rule.
// Employees without history keep their initial placement and are skipped.
func audit(ctx context.Context, repo RepositoryAPI) ([]*Drift, error) {
	rows, err := repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	placements, err := repo.Placements(ctx)
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[string][]*assignmentDatamodel.Assignment)
	for _, r := range rows {
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}

	drifts := make([]*Drift, 0)
	for employeeID, history := range byEmployee {
		stored, ok := placements[employeeID]
		if !ok {
			continue
		}
		expected := CurrentLocation(history)
		if !sameLocation(stored, expected) {
			drifts = append(drifts, &Drift{EmployeeID: employeeID, Stored: stored, Expected: expected})
		}
	}

	sort.Slice(drifts, func(i, j int) bool { return drifts[i].EmployeeID < drifts[j].EmployeeID })
	return drifts, nil
}

func sameLocation(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
