// Package models defines the GORM schema for Nova.
package models

import "time"

// Project is a real-estate listing in the company's inventory.
type Project struct {
	ID                 uint    `gorm:"primaryKey;autoIncrement"`
	ProjectName        string  `gorm:"size:255;index"`
	NoOfBedrooms       int     `gorm:"index"`
	CompletionStatus   string  `gorm:"size:50"`
	Bathrooms          int
	UnitType           string  `gorm:"size:100;index"`
	DeveloperName      string  `gorm:"size:255"`
	PriceUSD           float64 `gorm:"column:price_usd;index"`
	AreaSqMtrs         float64 `gorm:"column:area_sq_mtrs"`
	PropertyType       string  `gorm:"size:100;index"`
	City               string  `gorm:"size:100;index"`
	Country            string  `gorm:"size:100"`
	CompletionDate     string  `gorm:"size:50"`
	Features           string  `gorm:"type:json"`
	Facilities         string  `gorm:"type:json"`
	ProjectDescription string  `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Bookings []Booking `gorm:"foreignKey:ProjectID"`
}
