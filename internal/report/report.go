// Package report runs read-only queries over the assignment store and turns
// their results into exportable tables.
package report

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	errors "github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/core/common/validation"
	"github.com/frahmantamala/assignment-tracker/internal/employee"
)

type Kind string

const (
	KindHistory    Kind = "history"
	KindPlacements Kind = "placements"
	KindUnassigned Kind = "unassigned"
	KindHeadcount  Kind = "headcount"
	KindSummary    Kind = "summary"
)

var Kinds = []Kind{KindHistory, KindPlacements, KindUnassigned, KindHeadcount, KindSummary}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", unknownKind(s)
}

func unknownKind(s string) error {
	return errors.NewValidationFieldError("kind",
		fmt.Sprintf("unknown report %q; expected history, placements, unassigned, headcount or summary", s),
		errors.ErrCodeValidationFailed)
}

// Params holds the optional inputs of every report. From and To bound the
// history report; Region narrows the placements report.
type Params struct {
	From   string
	To     string
	Region string
}

func (p Params) Validate() error {
	v := validation.NewValidator()
	v.Field("from", p.From).Date()
	v.Field("to", p.To).Date().NotBefore(p.From, "from")

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Date scans a calendar date whatever the driver hands back: a time.Time, or
// the text SQLite returns for computed columns.
type Date string

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Date(v.Format(validation.DateLayout))
	case string:
		*d = Date(datePrefix(v))
	case []byte:
		*d = Date(datePrefix(string(v)))
	default:
		return fmt.Errorf("report: cannot scan %T into Date", src)
	}
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

func (d Date) Time() (time.Time, bool) {
	t, err := validation.ParseDate(string(d))
	return t, err == nil
}

func datePrefix(s string) string {
	if len(s) >= len(validation.DateLayout) {
		return s[:len(validation.DateLayout)]
	}
	return s
}

type HistoryRow struct {
	AssignmentID          string `db:"id" json:"assignment_id"`
	EmployeeID            string `db:"employee_id" json:"employee_id"`
	Title                 string `db:"title" json:"-"`
	LastName              string `db:"last_name" json:"-"`
	FirstName             string `db:"first_name" json:"-"`
	EmployeeName          string `db:"-" json:"employee_name"`
	OriginLocationID      string `db:"origin_location_id" json:"origin_location_id"`
	OriginName            string `db:"origin_name" json:"origin_name"`
	DestinationLocationID string `db:"destination_location_id" json:"destination_location_id"`
	DestinationName       string `db:"destination_name" json:"destination_name"`
	AssignmentDate        Date   `db:"assignment_date" json:"assignment_date"`
	ServiceStartDate      Date   `db:"service_start_date" json:"service_start_date"`
}

type PlacementRow struct {
	EmployeeID   string `db:"employee_id" json:"employee_id"`
	Title        string `db:"title" json:"-"`
	LastName     string `db:"last_name" json:"-"`
	FirstName    string `db:"first_name" json:"-"`
	EmployeeName string `db:"-" json:"employee_name"`
	JobTitle     string `db:"job_title" json:"job_title"`
	LocationID   string `db:"location_id" json:"location_id"`
	LocationName string `db:"location_name" json:"location_name"`
	Region       string `db:"region" json:"region"`
	// Since is the service start of the assignment that placed the employee;
	// empty for an initial placement.
	Since        Date `db:"since" json:"since,omitempty"`
	DaysAssigned *int `db:"-" json:"days_assigned,omitempty"`
}

type UnassignedRow struct {
	EmployeeID   string `db:"employee_id" json:"employee_id"`
	Title        string `db:"title" json:"-"`
	LastName     string `db:"last_name" json:"-"`
	FirstName    string `db:"first_name" json:"-"`
	EmployeeName string `db:"-" json:"employee_name"`
	Email        string `db:"email" json:"email"`
	JobTitle     string `db:"job_title" json:"job_title"`
}

type HeadcountRow struct {
	LocationID   string `db:"location_id" json:"location_id"`
	LocationName string `db:"location_name" json:"location_name"`
	Region       string `db:"region" json:"region"`
	Headcount    int    `db:"headcount" json:"headcount"`
}

type Summary struct {
	Employees            int    `json:"employees"`
	Placed               int    `json:"placed"`
	Unassigned           int    `json:"unassigned"`
	Locations            int    `json:"locations"`
	Regions              int    `json:"regions"`
	Assignments          int    `json:"assignments"`
	AssignmentsThisMonth int    `json:"assignments_this_month"`
	Month                string `json:"month"`
}

// Result pairs the typed rows, served as JSON, with their tabular form.
type Result struct {
	Kind  Kind        `json:"kind"`
	Data  interface{} `json:"data"`
	Table *Table      `json:"-"`
}

func historyTable(rows []*HistoryRow) *Table {
	t := &Table{
		Title:   "Assignment history",
		Headers: []string{"Assignment", "Employee ID", "Employee", "From", "To", "Assignment date", "Service start"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.AssignmentID, r.EmployeeID, r.EmployeeName, r.OriginName, r.DestinationName,
			string(r.AssignmentDate), string(r.ServiceStartDate),
		})
	}
	return t
}

func placementsTable(rows []*PlacementRow) *Table {
	t := &Table{
		Title:   "Current placements",
		Headers: []string{"Employee ID", "Employee", "Job title", "Location", "Region", "Since", "Days assigned"},
	}
	for _, r := range rows {
		days := ""
		if r.DaysAssigned != nil {
			days = strconv.Itoa(*r.DaysAssigned)
		}
		t.Rows = append(t.Rows, []string{
			r.EmployeeID, r.EmployeeName, r.JobTitle, r.LocationName, r.Region, string(r.Since), days,
		})
	}
	return t
}

func unassignedTable(rows []*UnassignedRow) *Table {
	t := &Table{
		Title:   "Unassigned employees",
		Headers: []string{"Employee ID", "Employee", "Email", "Job title"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.EmployeeID, r.EmployeeName, r.Email, r.JobTitle})
	}
	return t
}

func headcountTable(rows []*HeadcountRow) *Table {
	t := &Table{
		Title:   "Headcount per location",
		Headers: []string{"Location ID", "Location", "Region", "Headcount"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.LocationID, r.LocationName, r.Region, strconv.Itoa(r.Headcount)})
	}
	return t
}

func summaryTable(s *Summary) *Table {
	return &Table{
		Title:   "Summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Employees", strconv.Itoa(s.Employees)},
			{"Placed employees", strconv.Itoa(s.Placed)},
			{"Unassigned employees", strconv.Itoa(s.Unassigned)},
			{"Locations", strconv.Itoa(s.Locations)},
			{"Regions", strconv.Itoa(s.Regions)},
			{"Assignments", strconv.Itoa(s.Assignments)},
			{"Assignments in " + s.Month, strconv.Itoa(s.AssignmentsThisMonth)},
		},
	}
}

func fullName(title, lastName, firstName string) string {
	return employee.FormatFullName(title, lastName, firstName)
}
