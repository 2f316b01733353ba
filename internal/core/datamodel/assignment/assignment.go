package assignment

import "time"

type Assignment struct {
	ID                    string    `gorm:"column:id;primaryKey"`
	EmployeeID            string    `gorm:"column:employee_id;not null;index:idx_assignments_employee_dates,priority:1"`
	OriginLocationID      string    `gorm:"column:origin_location_id;not null"`
	DestinationLocationID string    `gorm:"column:destination_location_id;not null"`
	AssignmentDate        time.Time `gorm:"column:assignment_date;type:date;not null;index:idx_assignments_employee_dates,priority:2"`
	ServiceStartDate      time.Time `gorm:"column:service_start_date;type:date;not null;index:idx_assignments_employee_dates,priority:3"`
}

func (Assignment) TableName() string {
	return "assignments"
}
