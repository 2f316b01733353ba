package location

type Location struct {
	ID     string `gorm:"column:id;primaryKey"`
	Name   string `gorm:"column:name;not null"`
	Region string `gorm:"column:region;not null"`
}

func (Location) TableName() string {
	return "locations"
}
