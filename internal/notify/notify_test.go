package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/silverland/nova/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeAdapter struct {
	events []Event
	err    error
}

func (f *fakeAdapter) Send(ctx context.Context, e Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeAdapter) Name() string { return "fake" }

func openNotifyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Project{}, &models.Lead{}, &models.Booking{}, &models.Conversation{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func TestLeadCaptured(t *testing.T) {
	db := openNotifyTestDB(t)
	lead := models.Lead{FirstName: "John", LastName: "Doe", Email: "john@example.com",
		PreferredCity: "Dubai", PreferredBudget: 500000, PreferredBedrooms: 2}
	db.Create(&lead)

	fake := &fakeAdapter{}
	svc := NewService(db, fake)
	svc.LeadCaptured(int64(lead.ID))

	if len(fake.events) != 1 {
		t.Fatalf("got %d events, want 1", len(fake.events))
	}
	e := fake.events[0]
	if !strings.Contains(e.Title, "John Doe") {
		t.Errorf("title = %q, want lead name", e.Title)
	}
	if !strings.Contains(e.Body, "Dubai") || !strings.Contains(e.Body, "500000") {
		t.Errorf("body = %q, want city and budget", e.Body)
	}
}

func TestLeadCaptured_MissingLead(t *testing.T) {
	db := openNotifyTestDB(t)
	fake := &fakeAdapter{}
	svc := NewService(db, fake)

	svc.LeadCaptured(999)
	if len(fake.events) != 0 {
		t.Errorf("expected no events for a missing lead, got %d", len(fake.events))
	}
}

func TestBookingCreated(t *testing.T) {
	db := openNotifyTestDB(t)
	lead := models.Lead{FirstName: "Ada", Email: "ada@example.com"}
	db.Create(&lead)
	project := models.Project{ProjectName: "Palm Vista", City: "Dubai"}
	db.Create(&project)
	booking := models.Booking{LeadID: &lead.ID, ProjectID: &project.ID,
		BookingDate: "2026-09-01", BookingStatus: "confirmed"}
	db.Create(&booking)

	fake := &fakeAdapter{}
	svc := NewService(db, fake)
	svc.BookingCreated(int64(booking.ID))

	if len(fake.events) != 1 {
		t.Fatalf("got %d events, want 1", len(fake.events))
	}
	e := fake.events[0]
	if e.Severity != "success" {
		t.Errorf("severity = %q, want success", e.Severity)
	}
	for _, want := range []string{"Palm Vista", "Ada", "2026-09-01"} {
		if !strings.Contains(e.Body, want) {
			t.Errorf("body %q missing %q", e.Body, want)
		}
	}
}

func TestSend_AdapterFailureDoesNotPanic(t *testing.T) {
	db := openNotifyTestDB(t)
	lead := models.Lead{FirstName: "Ada", Email: "ada2@example.com"}
	db.Create(&lead)

	failing := &fakeAdapter{err: errors.New("network down")}
	working := &fakeAdapter{}
	svc := NewService(db, failing, working)
	svc.LeadCaptured(int64(lead.ID))

	if len(working.events) != 1 {
		t.Errorf("second adapter should still receive the event, got %d", len(working.events))
	}
}

func TestBuildDailyReport(t *testing.T) {
	db := openNotifyTestDB(t)
	now := time.Now()
	recent := now.Add(-2 * time.Hour)
	old := now.Add(-48 * time.Hour)

	db.Create(&models.Lead{Email: "a@x.com", PreferredCity: "Dubai", CreatedAt: recent})
	db.Create(&models.Lead{Email: "b@x.com", PreferredCity: "Dubai", CreatedAt: recent})
	db.Create(&models.Lead{Email: "c@x.com", PreferredCity: "Bali", CreatedAt: recent})
	db.Create(&models.Lead{Email: "d@x.com", PreferredCity: "Dubai", CreatedAt: old})
	db.Create(&models.Booking{BookingStatus: "confirmed", CreatedAt: recent})
	db.Create(&models.Booking{BookingStatus: "pending", CreatedAt: recent})
	db.Create(&models.Conversation{ConversationID: "conv-1", CreatedAt: recent})

	report, err := BuildDailyReport(db, now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.NewLeads != 3 {
		t.Errorf("new leads = %d, want 3", report.NewLeads)
	}
	if report.NewBookings != 2 {
		t.Errorf("new bookings = %d, want 2", report.NewBookings)
	}
	if report.ConfirmedBookings != 1 {
		t.Errorf("confirmed bookings = %d, want 1", report.ConfirmedBookings)
	}
	if report.NewConversations != 1 {
		t.Errorf("new conversations = %d, want 1", report.NewConversations)
	}
	if len(report.TopCities) == 0 || report.TopCities[0].City != "Dubai" || report.TopCities[0].Leads != 2 {
		t.Errorf("top cities = %+v, want Dubai first with 2", report.TopCities)
	}
	if !report.HasActivity() {
		t.Error("report should have activity")
	}
}

func TestRunDailyDigest_NoActivity(t *testing.T) {
	db := openNotifyTestDB(t)
	fake := &fakeAdapter{}
	svc := NewService(db, fake)

	if err := svc.RunDailyDigest(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.events) != 0 {
		t.Errorf("expected no digest without activity, got %d events", len(fake.events))
	}
}

func TestNextCronDuration(t *testing.T) {
	d := nextCronDuration("0 9 * * *")
	if d <= 0 || d > 24*time.Hour {
		t.Errorf("duration %v outside (0, 24h]", d)
	}
	if got := nextCronDuration("not a cron"); got != 0 {
		t.Errorf("invalid expression should return 0, got %v", got)
	}
}
