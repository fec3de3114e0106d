// Package notify delivers sales events (lead capture, bookings, daily
// digests) to chat platforms. Delivery is best-effort: failures are
// logged, never propagated into the conversation turn.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/silverland/nova/internal/models"
	"gorm.io/gorm"
)

// Event is a sales notification formatted for chat display.
type Event struct {
	Title    string
	Body     string
	Severity string // "info" or "success"
}

// Adapter is the interface platform-specific implementations satisfy.
type Adapter interface {
	Send(ctx context.Context, e Event) error
	Name() string
}

// Service fans sales events out to all configured adapters.
type Service struct {
	db       *gorm.DB
	adapters []Adapter
	timeout  time.Duration
}

// NewService creates a notification service. An empty adapter list is
// valid and turns every delivery into a no-op.
func NewService(db *gorm.DB, adapters ...Adapter) *Service {
	return &Service{db: db, adapters: adapters, timeout: 10 * time.Second}
}

// LeadCaptured announces a newly stored lead. Safe to call from a
// goroutine; errors are logged only.
func (s *Service) LeadCaptured(id int64) {
	var lead models.Lead
	if err := s.db.First(&lead, id).Error; err != nil {
		log.Printf("notify: load lead %d: %v", id, err)
		return
	}
	name := lead.FirstName
	if lead.LastName != "" {
		name += " " + lead.LastName
	}
	s.send(Event{
		Title:    fmt.Sprintf("New lead: %s", name),
		Body:     fmt.Sprintf("City: %s | Budget: $%d | Bedrooms: %d", lead.PreferredCity, lead.PreferredBudget, lead.PreferredBedrooms),
		Severity: "info",
	})
}

// BookingCreated announces a newly stored booking.
func (s *Service) BookingCreated(id int64) {
	var booking models.Booking
	if err := s.db.Preload("Lead").Preload("Project").First(&booking, id).Error; err != nil {
		log.Printf("notify: load booking %d: %v", id, err)
		return
	}
	body := fmt.Sprintf("Date: %s | Status: %s", booking.BookingDate, booking.BookingStatus)
	if booking.Project != nil {
		body += " | Project: " + booking.Project.ProjectName
	}
	if booking.Lead != nil {
		body += " | Lead: " + booking.Lead.FirstName
	}
	s.send(Event{
		Title:    "Site visit booked",
		Body:     body,
		Severity: "success",
	})
}

func (s *Service) send(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	for _, a := range s.adapters {
		if err := a.Send(ctx, e); err != nil {
			log.Printf("notify: %s send failed: %v", a.Name(), err)
		}
	}
}
