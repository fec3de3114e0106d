package models

import "time"

// Lead is a prospective buyer captured during a sales conversation.
type Lead struct {
	ID                    uint   `gorm:"primaryKey;autoIncrement"`
	FirstName             string `gorm:"size:100"`
	LastName              string `gorm:"size:100"`
	Email                 string `gorm:"size:255;uniqueIndex"`
	PreferredCity         string `gorm:"size:100;index"`
	PreferredBudget       int    `gorm:"column:preferred_budget;index"`
	PreferredPropertyType string `gorm:"size:100"`
	PreferredBedrooms     int
	Metadata              string `gorm:"column:metadata_json;type:json"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Bookings []Booking `gorm:"foreignKey:LeadID"`
}

// Booking links a lead to a project for a site visit.
type Booking struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	LeadID        *uint  `gorm:"index"`
	ProjectID     *uint  `gorm:"index"`
	BookingDate   string `gorm:"size:50;index"`
	BookingStatus string `gorm:"size:50;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Lead    *Lead    `gorm:"foreignKey:LeadID"`
	Project *Project `gorm:"foreignKey:ProjectID"`
}
