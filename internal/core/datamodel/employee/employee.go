package employee

type Employee struct {
	ID                string  `gorm:"column:id;primaryKey"`
	Title             string  `gorm:"column:title;not null"`
	LastName          string  `gorm:"column:last_name;not null"`
	FirstName         string  `gorm:"column:first_name;not null"`
	Email             string  `gorm:"column:email;uniqueIndex;not null"`
	JobTitle          string  `gorm:"column:job_title;not null"`
	CurrentLocationID *string `gorm:"column:current_location_id"`

	// Filled only by reads that join the current location.
	LocationName   *string `gorm:"column:location_name;->"`
	LocationRegion *string `gorm:"column:location_region;->"`
}

func (Employee) TableName() string {
	return "employees"
}
