package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/silverland/nova/internal/models"
	"gorm.io/gorm"
)

// DailyReport holds sales metrics for a 24-hour period.
type DailyReport struct {
	PeriodStart       time.Time
	PeriodEnd         time.Time
	NewLeads          int64
	NewBookings       int64
	ConfirmedBookings int64
	NewConversations  int64
	TopCities         []CityCount
}

// CityCount is a per-city lead count for the digest breakdown.
type CityCount struct {
	City  string
	Leads int64
}

// BuildDailyReport queries the store for activity between since and now.
func BuildDailyReport(db *gorm.DB, since, now time.Time) (*DailyReport, error) {
	report := &DailyReport{PeriodStart: since, PeriodEnd: now}

	if err := db.Model(&models.Lead{}).Where("created_at >= ?", since).Count(&report.NewLeads).Error; err != nil {
		return nil, fmt.Errorf("notify: count leads: %w", err)
	}
	if err := db.Model(&models.Booking{}).Where("created_at >= ?", since).Count(&report.NewBookings).Error; err != nil {
		return nil, fmt.Errorf("notify: count bookings: %w", err)
	}
	if err := db.Model(&models.Booking{}).
		Where("created_at >= ? AND booking_status = ?", since, "confirmed").
		Count(&report.ConfirmedBookings).Error; err != nil {
		return nil, fmt.Errorf("notify: count confirmed bookings: %w", err)
	}
	if err := db.Model(&models.Conversation{}).Where("created_at >= ?", since).Count(&report.NewConversations).Error; err != nil {
		return nil, fmt.Errorf("notify: count conversations: %w", err)
	}

	rows, err := db.Model(&models.Lead{}).
		Select("preferred_city AS city, COUNT(*) AS leads").
		Where("created_at >= ? AND preferred_city <> ''", since).
		Group("preferred_city").
		Order("leads DESC").
		Limit(5).
		Rows()
	if err != nil {
		return nil, fmt.Errorf("notify: city breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc CityCount
		if err := rows.Scan(&cc.City, &cc.Leads); err != nil {
			return nil, fmt.Errorf("notify: scan city breakdown: %w", err)
		}
		report.TopCities = append(report.TopCities, cc)
	}

	return report, nil
}

// HasActivity reports whether the period saw anything worth announcing.
func (r *DailyReport) HasActivity() bool {
	return r.NewLeads > 0 || r.NewBookings > 0 || r.NewConversations > 0
}

// Format renders the report as chat-ready text.
func (r *DailyReport) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Leads: %d | Bookings: %d (%d confirmed) | Conversations: %d",
		r.NewLeads, r.NewBookings, r.ConfirmedBookings, r.NewConversations)
	if len(r.TopCities) > 0 {
		b.WriteString("\nTop cities:")
		for _, cc := range r.TopCities {
			fmt.Fprintf(&b, " %s (%d)", cc.City, cc.Leads)
		}
	}
	return b.String()
}

// RunDailyDigest builds and delivers the daily report. No-op when the
// period had no activity.
func (s *Service) RunDailyDigest() error {
	now := time.Now()
	report, err := BuildDailyReport(s.db, now.Add(-24*time.Hour), now)
	if err != nil {
		return err
	}
	if !report.HasActivity() {
		return nil
	}
	s.send(Event{
		Title:    fmt.Sprintf("Daily sales digest for %s", now.Format("2006-01-02")),
		Body:     report.Format(),
		Severity: "info",
	})
	return nil
}
