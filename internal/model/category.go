package model

// Category groups products. Categories are seeded and never edited once
// products reference them.
type Category struct {
	BaseModel
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
}
