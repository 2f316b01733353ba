package report

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/assignment-tracker/internal/core/common/validation"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"github.com/jmoiron/sqlx"
)

const historyQuery = `
SELECT a.id, a.employee_id, e.title, e.last_name, e.first_name,
       a.origin_location_id, o.name AS origin_name,
       a.destination_location_id, d.name AS destination_name,
       a.assignment_date, a.service_start_date
FROM assignments a
JOIN employees e ON e.id = a.employee_id
JOIN locations o ON o.id = a.origin_location_id
JOIN locations d ON d.id = a.destination_location_id`

const placementsQuery = `
SELECT e.id AS employee_id, e.title, e.last_name, e.first_name, e.job_title,
       l.id AS location_id, l.name AS location_name, l.region,
       (SELECT a.service_start_date FROM assignments a
         WHERE a.employee_id = e.id
         ORDER BY a.assignment_date DESC, a.service_start_date DESC, a.id DESC
         LIMIT 1) AS since
FROM employees e
JOIN locations l ON l.id = e.current_location_id`

const unassignedQuery = `
SELECT id AS employee_id, title, last_name, first_name, email, job_title
FROM employees
WHERE current_location_id IS NULL
ORDER BY last_name, first_name, id`

const headcountQuery = `
SELECT l.id AS location_id, l.name AS location_name, l.region, COUNT(e.id) AS headcount
FROM locations l
LEFT JOIN employees e ON e.current_location_id = l.id
GROUP BY l.id, l.name, l.region
ORDER BY headcount DESC, l.name, l.id`

type Service struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewService(db *sqlx.DB, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for "days assigned" and the summary month.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Generate runs the named report.
func (s *Service) Generate(ctx context.Context, kind Kind, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Kind: kind}
	switch kind {
	case KindHistory:
		rows, err := s.AssignmentHistory(ctx, params.From, params.To)
		if err != nil {
			return nil, err
		}
		res.Data, res.Table = rows, historyTable(rows)
	case KindPlacements:
		rows, err := s.CurrentPlacements(ctx, params.Region)
		if err != nil {
			return nil, err
		}
		res.Data, res.Table = rows, placementsTable(rows)
	case KindUnassigned:
		rows, err := s.Unassigned(ctx)
		if err != nil {
			return nil, err
		}
		res.Data, res.Table = rows, unassignedTable(rows)
	case KindHeadcount:
		rows, err := s.Headcount(ctx)
		if err != nil {
			return nil, err
		}
		res.Data, res.Table = rows, headcountTable(rows)
	case KindSummary:
		summary, err := s.Summary(ctx, s.now())
		if err != nil {
			return nil, err
		}
		res.Data, res.Table = summary, summaryTable(summary)
	default:
		return nil, unknownKind(string(kind))
	}

	s.logger.Debug("report generated", "kind", kind, "rows", len(res.Table.Rows))
	return res, nil
}

// AssignmentHistory lists assignments dated within [from, to], oldest first.
// Empty bounds are open.
func (s *Service) AssignmentHistory(ctx context.Context, from, to string) ([]*HistoryRow, error) {
	if err := (Params{From: from, To: to}).Validate(); err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []interface{}
	)
	if from != "" {
		d, _ := validation.ParseDate(from)
		conds = append(conds, "a.assignment_date >= ?")
		args = append(args, d)
	}
	if to != "" {
		d, _ := validation.ParseDate(to)
		conds = append(conds, "a.assignment_date <= ?")
		args = append(args, d)
	}

	query := historyQuery
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY a.assignment_date, a.service_start_date, a.id"

	rows := make([]*HistoryRow, 0)
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		s.logger.Error("failed to query assignment history", "error", err)
		return nil, storage.TranslateError(err)
	}
	for _, r := range rows {
		r.EmployeeName = fullName(r.Title, r.LastName, r.FirstName)
	}
	return rows, nil
}

// CurrentPlacements lists placed employees, optionally within one region.
func (s *Service) CurrentPlacements(ctx context.Context, region string) ([]*PlacementRow, error) {
	query := placementsQuery
	var args []interface{}
	if region = strings.TrimSpace(region); region != "" {
		query += "\nWHERE l.region = ?"
		args = append(args, region)
	}
	query += "\nORDER BY l.region, l.name, e.last_name, e.first_name, e.id"

	rows := make([]*PlacementRow, 0)
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		s.logger.Error("failed to query placements", "error", err)
		return nil, storage.TranslateError(err)
	}

	today := validation.Day(s.now())
	for _, r := range rows {
		r.EmployeeName = fullName(r.Title, r.LastName, r.FirstName)
		if since, ok := r.Since.Time(); ok {
			days := int(today.Sub(since).Hours() / 24)
			r.DaysAssigned = &days
		}
	}
	return rows, nil
}

func (s *Service) Unassigned(ctx context.Context) ([]*UnassignedRow, error) {
	rows := make([]*UnassignedRow, 0)
	if err := s.db.SelectContext(ctx, &rows, unassignedQuery); err != nil {
		s.logger.Error("failed to query unassigned employees", "error", err)
		return nil, storage.TranslateError(err)
	}
	for _, r := range rows {
		r.EmployeeName = fullName(r.Title, r.LastName, r.FirstName)
	}
	return rows, nil
}

// Headcount counts employees currently placed at each location, busiest first.
func (s *Service) Headcount(ctx context.Context) ([]*HeadcountRow, error) {
	rows := make([]*HeadcountRow, 0)
	if err := s.db.SelectContext(ctx, &rows, headcountQuery); err != nil {
		s.logger.Error("failed to query headcount", "error", err)
		return nil, storage.TranslateError(err)
	}
	return rows, nil
}

// Summary gathers the dashboard totals; the monthly count covers the calendar
// month of now.
func (s *Service) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	summary := &Summary{Month: monthStart.Format("2006-01")}
	counts := []struct {
		dst   *int
		query string
		args  []interface{}
	}{
		{&summary.Employees, "SELECT COUNT(*) FROM employees", nil},
		{&summary.Unassigned, "SELECT COUNT(*) FROM employees WHERE current_location_id IS NULL", nil},
		{&summary.Locations, "SELECT COUNT(*) FROM locations", nil},
		{&summary.Regions, "SELECT COUNT(DISTINCT region) FROM locations", nil},
		{&summary.Assignments, "SELECT COUNT(*) FROM assignments", nil},
		{&summary.AssignmentsThisMonth, "SELECT COUNT(*) FROM assignments WHERE assignment_date >= ? AND assignment_date < ?", []interface{}{monthStart, nextMonth}},
	}
	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dst, s.db.Rebind(c.query), c.args...); err != nil {
			s.logger.Error("failed to query summary", "error", err)
			return nil, storage.TranslateError(err)
		}
	}
	summary.Placed = summary.Employees - summary.Unassigned
	return summary, nil
}
