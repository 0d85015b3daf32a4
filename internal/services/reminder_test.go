package services

import (
	"testing"
	"time"

	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/models"
	"gorm.io/gorm"
)

func seedProject(t *testing.T, db *gorm.DB, publicID, status string, expiresAt time.Time) {
	t.Helper()
	err := db.Create(&models.Project{
		PublicID:    publicID,
		ClientName:  "Cliente",
		ClientEmail: publicID + "@example.com",
		PackageTier: "essencial",
		Status:      status,
		ExpiresAt:   expiresAt,
	}).Error
	if err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
}

func TestDueForReminder(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.ReviewConfig{WindowDays: 30, ExtensionDays: 7, ReminderDays: 3}
	svc := NewReminderService(db, nil, cfg)

	now := time.Now()

	seedProject(t, db, "expiring-tomorrow", models.StatusWaiting, now.AddDate(0, 0, 1))
	seedProject(t, db, "expiring-in-two-days", models.StatusFeedback, now.AddDate(0, 0, 2))
	seedProject(t, db, "far-away", models.StatusWaiting, now.AddDate(0, 0, 20))
	seedProject(t, db, "already-expired", models.StatusWaiting, now.AddDate(0, 0, -1))
	seedProject(t, db, "approved-soon", models.StatusApproved, now.AddDate(0, 0, 1))

	due, err := svc.DueForReminder(now)
	if err != nil {
		t.Fatalf("DueForReminder failed: %v", err)
	}

	got := make(map[string]bool, len(due))
	for _, p := range due {
		got[p.PublicID] = true
	}

	if len(due) != 2 {
		t.Fatalf("expected 2 projects due, got %d: %v", len(due), got)
	}
	if !got["expiring-tomorrow"] || !got["expiring-in-two-days"] {
		t.Errorf("wrong projects due: %v", got)
	}
}

func TestBusinessCalendarSkipsWeekends(t *testing.T) {
	svc := NewReminderService(nil, nil, nil)

	// 2026-08-29 is a Saturday, 2026-08-31 a Monday
	saturday := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	if svc.calendar.IsWorkday(saturday) {
		t.Error("Saturday should not be a business day")
	}
	if !svc.calendar.IsWorkday(monday) {
		t.Error("Monday should be a business day")
	}
}

func TestBusinessCalendarKnowsBrazilianHolidays(t *testing.T) {
	svc := NewReminderService(nil, nil, nil)

	// Tiradentes, a fixed national holiday, on a Tuesday in 2026
	tiradentes := time.Date(2026, 4, 21, 9, 0, 0, 0, time.UTC)
	if svc.calendar.IsWorkday(tiradentes) {
		t.Error("Tiradentes should not be a business day")
	}
}
