package services

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/br"
	"github.com/robfig/cron/v3"
	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/pkg/logger"
	"gorm.io/gorm"
)

// ReminderService mails clients whose review window is about to close. The
// expiration itself is data only: nothing here ever changes a project's
// status. Reminders go out on business days so clients are not nudged on a
// weekend or holiday.
type ReminderService struct {
	db        *gorm.DB
	email     *EmailService
	cfg       *config.ReviewConfig
	calendar  *cal.BusinessCalendar
	scheduler *cron.Cron
}

func NewReminderService(db *gorm.DB, email *EmailService, cfg *config.ReviewConfig) *ReminderService {
	calendar := cal.NewBusinessCalendar()
	calendar.Name = "Brazil"
	calendar.AddHoliday(br.Holidays...)

	return &ReminderService{
		db:       db,
		email:    email,
		cfg:      cfg,
		calendar: calendar,
	}
}

// StartScheduler runs the reminder sweep every morning at 09:00.
func (s *ReminderService) StartScheduler() {
	s.scheduler = cron.New()

	if _, err := s.scheduler.AddFunc("0 9 * * *", func() {
		s.RunOnce(time.Now())
	}); err != nil {
		logger.Errorf("[Reminder] failed to schedule sweep: %v", err)
		return
	}

	s.scheduler.Start()
	logger.Infof("[Reminder] scheduler started (daily at 09:00)")
}

func (s *ReminderService) StopScheduler() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunOnce sends reminders for projects expiring within the window. Skipped
// entirely on non-business days.
func (s *ReminderService) RunOnce(now time.Time) {
	if !s.calendar.IsWorkday(now) {
		logger.Infof("[Reminder] %s is not a business day, skipping sweep", now.Format("2006-01-02"))
		return
	}

	projects, err := s.DueForReminder(now)
	if err != nil {
		logger.Errorf("[Reminder] failed to load expiring projects: %v", err)
		return
	}

	for i := range projects {
		p := &projects[i]
		daysLeft := int(p.ExpiresAt.Sub(now).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}
		if err := s.email.SendDeadlineReminder(p, daysLeft); err != nil {
			logger.Warnf("[Reminder] failed to remind %s: %v", p.ClientEmail, err)
		}
	}

	if len(projects) > 0 {
		logger.Infof("[Reminder] sent %d deadline reminder(s)", len(projects))
	}
}

// DueForReminder returns unapproved projects whose window closes within the
// configured reminder horizon but has not yet passed.
func (s *ReminderService) DueForReminder(now time.Time) ([]models.Project, error) {
	horizon := now.AddDate(0, 0, s.reminderDays())

	var projects []models.Project
	err := s.db.
		Where("status != ?", models.StatusApproved).
		Where("expires_at > ? AND expires_at <= ?", now, horizon).
		Find(&projects).Error
	return projects, err
}

func (s *ReminderService) reminderDays() int {
	if s.cfg != nil && s.cfg.ReminderDays > 0 {
		return s.cfg.ReminderDays
	}
	return 3
}
