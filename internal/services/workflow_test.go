package services

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Project{},
		&models.Version{},
		&models.Feedback{},
		&models.HistoryEntry{},
		&models.NotificationChannel{},
		&models.PortfolioItem{},
		&models.Invoice{},
		&models.SystemConfig{},
		&models.SystemLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// recordingNotifier captures dispatched events for assertions.
type recordingNotifier struct {
	events []*WorkflowEvent
}

func (n *recordingNotifier) Notify(e *WorkflowEvent) error {
	n.events = append(n.events, e)
	return nil
}

func newTestWorkflow(t *testing.T) (*WorkflowService, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	cfg := &config.ReviewConfig{WindowDays: 30, ExtensionDays: 7, ReminderDays: 3}
	svc := NewWorkflowService(newTestDB(t), NewMemoryProjectCache(), notifier, cfg)
	return svc, notifier
}

func createTestProject(t *testing.T, svc *WorkflowService) *models.Project {
	t.Helper()
	project, err := svc.CreateProject(&CreateProjectRequest{
		ClientName:  "Maria Silva",
		ClientEmail: "maria@example.com",
		PackageTier: "premium",
		Title:       "Tema de casamento",
	})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	return project
}

func TestCreateProject(t *testing.T) {
	svc, _ := newTestWorkflow(t)

	project := createTestProject(t, svc)

	if project.Status != models.StatusWaiting {
		t.Errorf("new project status = %q, expected %q", project.Status, models.StatusWaiting)
	}
	if project.PublicID == "" {
		t.Error("new project should get a public ID")
	}
	if len(project.Versions) != 0 {
		t.Errorf("new project should have no versions, got %d", len(project.Versions))
	}

	wantExpiry := time.Now().AddDate(0, 0, 30)
	diff := project.ExpiresAt.Sub(wantExpiry)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiry = %v, expected about %v", project.ExpiresAt, wantExpiry)
	}

	if len(project.History) != 1 {
		t.Fatalf("expected 1 history entry after creation, got %d", len(project.History))
	}
	if project.History[0].Action != ActionProjectCreated {
		t.Errorf("history action = %q, expected %q", project.History[0].Action, ActionProjectCreated)
	}
	if project.History[0].Position != 1 {
		t.Errorf("first history position = %d, expected 1", project.History[0].Position)
	}
}

func TestCreateProject_Validation(t *testing.T) {
	svc, _ := newTestWorkflow(t)

	tests := []struct {
		name string
		req  CreateProjectRequest
	}{
		{"missing client name", CreateProjectRequest{ClientEmail: "a@b.com", PackageTier: "premium"}},
		{"missing client email", CreateProjectRequest{ClientName: "Ana", PackageTier: "premium"}},
		{"unknown package tier", CreateProjectRequest{ClientName: "Ana", ClientEmail: "a@b.com", PackageTier: "platinum"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateProject(&tt.req); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestAddVersion(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)

	v, err := svc.AddVersion(project.PublicID, &AddVersionRequest{
		Name:     "Primeira ideia",
		AudioURL: "https://cdn.example.com/v1.mp3",
	})
	if err != nil {
		t.Fatalf("AddVersion failed: %v", err)
	}

	if v.Position != 1 {
		t.Errorf("first version position = %d, expected 1", v.Position)
	}
	if v.Final {
		t.Error("version should not be final")
	}

	reloaded, err := svc.GetProjectByID(project.PublicID)
	if err != nil {
		t.Fatalf("GetProjectByID failed: %v", err)
	}
	if len(reloaded.Versions) != 1 {
		t.Fatalf("expected 1 version, got %d", len(reloaded.Versions))
	}
	// Adding a version alone never changes the status
	if reloaded.Status != models.StatusWaiting {
		t.Errorf("status after AddVersion = %q, expected %q", reloaded.Status, models.StatusWaiting)
	}
}

func TestAddVersion_Validation(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)

	if _, err := svc.AddVersion(project.PublicID, &AddVersionRequest{AudioURL: "https://x/v.mp3"}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := svc.AddVersion(project.PublicID, &AddVersionRequest{Name: "v1"}); err == nil {
		t.Error("expected error for missing audio URL")
	}
	if _, err := svc.AddVersion("unknown-project", &AddVersionRequest{Name: "v1", AudioURL: "https://x/v.mp3"}); err != ErrProjectNotFound {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestAddVersion_FinalPrefix(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)

	v, err := svc.AddVersion(project.PublicID, &AddVersionRequest{
		Name:     "Master",
		AudioURL: "https://cdn.example.com/master.wav",
		Final:    true,
	})
	if err != nil {
		t.Fatalf("AddVersion failed: %v", err)
	}

	if !strings.HasPrefix(v.Name, FinalVersionPrefix) {
		t.Errorf("final version name = %q, expected %q prefix", v.Name, FinalVersionPrefix)
	}

	reloaded, _ := svc.GetProjectByID(project.PublicID)
	last := reloaded.History[len(reloaded.History)-1]
	if last.Action != ActionFinalAdded {
		t.Errorf("history action = %q, expected %q", last.Action, ActionFinalAdded)
	}
}

func TestAddVersion_RecommendedIsExclusive(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)

	_, err := svc.AddVersion(project.PublicID, &AddVersionRequest{
		Name: "v1", AudioURL: "https://x/v1.mp3", Recommended: true,
	})
	if err != nil {
		t.Fatalf("AddVersion failed: %v", err)
	}
	_, err = svc.AddVersion(project.PublicID, &AddVersionRequest{
		Name: "v2", AudioURL: "https://x/v2.mp3", Recommended: true,
	})
	if err != nil {
		t.Fatalf("AddVersion failed: %v", err)
	}

	reloaded, _ := svc.GetProjectByID(project.PublicID)

	var recommended []string
	for _, v := range reloaded.Versions {
		if v.Recommended {
			recommended = append(recommended, v.Name)
		}
	}
	if len(recommended) != 1 || recommended[0] != "v2" {
		t.Errorf("recommended versions = %v, expected only v2", recommended)
	}
}

func TestAddVersionBatch_DropsInvalidEntries(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)

	added, err := svc.AddVersionBatch(project.PublicID, []AddVersionRequest{
		{Name: "v1", AudioURL: "https://x/v1.mp3"},
		{Name: "", AudioURL: "https://x/bad.mp3"},
		{Name: "sem audio", AudioURL: ""},
		{Name: "v2", AudioURL: "https://x/v2.mp3"},
	})
	if err != nil {
		t.Fatalf("AddVersionBatch failed: %v", err)
	}

	if len(added) != 2 {
		t.Fatalf("expected 2 versions added, got %d", len(added))
	}
	if added[0].Name != "v1" || added[1].Name != "v2" {
		t.Errorf("added versions out of order: %q, %q", added[0].Name, added[1].Name)
	}
	if added[0].Position != 1 || added[1].Position != 2 {
		t.Errorf("positions = %d, %d, expected 1, 2", added[0].Position, added[1].Position)
	}
}

func TestDeleteVersion(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)

	v, _ := svc.AddVersion(project.PublicID, &AddVersionRequest{Name: "v1", AudioURL: "https://x/v1.mp3"})

	if err := svc.DeleteVersion(project.PublicID, v.PublicID); err != nil {
		t.Fatalf("DeleteVersion failed: %v", err)
	}

	reloaded, _ := svc.GetProjectByID(project.PublicID)
	if len(reloaded.Versions) != 0 {
		t.Errorf("expected 0 versions after delete, got %d", len(reloaded.Versions))
	}

	last := reloaded.History[len(reloaded.History)-1]
	if last.Action != ActionVersionRemoved {
		t.Errorf("history action = %q, expected %q", last.Action, ActionVersionRemoved)
	}
}

func TestDeleteVersion_UnknownIsNoOp(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)

	before, _ := svc.GetProjectByID(project.PublicID)

	if err := svc.DeleteVersion(project.PublicID, "no-such-version"); err != nil {
		t.Fatalf("deleting an unknown version should succeed quietly, got %v", err)
	}

	after, _ := svc.GetProjectByID(project.PublicID)
	if len(after.History) != len(before.History) {
		t.Errorf("no-op delete should not append history: %d entries before, %d after",
			len(before.History), len(after.History))
	}
}

func TestSubmitFeedback(t *testing.T) {
	svc, notifier := newTestWorkflow(t)
	project := createTestProject(t, svc)
	v, _ := svc.AddVersion(project.PublicID, &AddVersionRequest{Name: "v1", AudioURL: "https://x/v1.mp3"})

	if err := svc.SubmitFeedback(project.PublicID, v.PublicID, "Gostei, mas o refrão está alto"); err != nil {
		t.Fatalf("SubmitFeedback failed: %v", err)
	}

	reloaded, _ := svc.GetProjectByID(project.PublicID)
	if reloaded.Status != models.StatusFeedback {
		t.Errorf("status = %q, expected %q", reloaded.Status, models.StatusFeedback)
	}
	if len(reloaded.Feedbacks) != 1 {
		t.Fatalf("expected 1 feedback, got %d", len(reloaded.Feedbacks))
	}
	if reloaded.Feedbacks[0].VersionPublicID != v.PublicID {
		t.Errorf("feedback version = %q, expected %q", reloaded.Feedbacks[0].VersionPublicID, v.PublicID)
	}

	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.events))
	}
	event := notifier.events[0]
	if event.Kind != KindFeedbackReceived {
		t.Errorf("event kind = %q, expected %q", event.Kind, KindFeedbackReceived)
	}
	if event.Message != "Gostei, mas o refrão está alto" {
		t.Errorf("event message = %q", event.Message)
	}
}

func TestSubmitFeedback_ApprovedNeverReverts(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)
	v, _ := svc.AddVersion(project.PublicID, &AddVersionRequest{Name: "v1", AudioURL: "https://x/v1.mp3"})

	if err := svc.ApproveVersion(project.PublicID, v.PublicID); err != nil {
		t.Fatalf("ApproveVersion failed: %v", err)
	}
	if err := svc.SubmitFeedback(project.PublicID, v.PublicID, "esqueci um detalhe"); err != nil {
		t.Fatalf("SubmitFeedback failed: %v", err)
	}

	reloaded, _ := svc.GetProjectByID(project.PublicID)
	if reloaded.Status != models.StatusApproved {
		t.Errorf("status = %q, approved must not revert to feedback", reloaded.Status)
	}
	// The late comment is still kept for the record
	if len(reloaded.Feedbacks) != 1 {
		t.Errorf("expected 1 feedback, got %d", len(reloaded.Feedbacks))
	}
}

func TestApproveVersion(t *testing.T) {
	svc, notifier := newTestWorkflow(t)
	project := createTestProject(t, svc)
	v, _ := svc.AddVersion(project.PublicID, &AddVersionRequest{Name: "v1", AudioURL: "https://x/v1.mp3"})

	if err := svc.ApproveVersion(project.PublicID, v.PublicID); err != nil {
		t.Fatalf("ApproveVersion failed: %v", err)
	}

	reloaded, _ := svc.GetProjectByID(project.PublicID)
	if reloaded.Status != models.StatusApproved {
		t.Errorf("status = %q, expected %q", reloaded.Status, models.StatusApproved)
	}

	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.events))
	}
	if notifier.events[0].Kind != KindPreviewApproved {
		t.Errorf("event kind = %q, expected %q", notifier.events[0].Kind, KindPreviewApproved)
	}
	if notifier.events[0].VersionID != v.PublicID {
		t.Errorf("event version = %q, expected %q", notifier.events[0].VersionID, v.PublicID)
	}
}

func TestApproveVersion_UnknownVersion(t *testing.T) {
	svc, notifier := newTestWorkflow(t)
	project := createTestProject(t, svc)

	err := svc.ApproveVersion(project.PublicID, "no-such-version")
	if err != ErrVersionNotFound {
		t.Errorf("expected ErrVersionNotFound, got %v", err)
	}

	reloaded, _ := svc.GetProjectByID(project.PublicID)
	if reloaded.Status != models.StatusWaiting {
		t.Errorf("failed approval must not change status, got %q", reloaded.Status)
	}
	if len(notifier.events) != 0 {
		t.Errorf("failed approval must not notify, got %d events", len(notifier.events))
	}
}

func TestApproveVersion_Idempotent(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)
	v, _ := svc.AddVersion(project.PublicID, &AddVersionRequest{Name: "v1", AudioURL: "https://x/v1.mp3"})

	if err := svc.ApproveVersion(project.PublicID, v.PublicID); err != nil {
		t.Fatalf("first approval failed: %v", err)
	}
	if err := svc.ApproveVersion(project.PublicID, v.PublicID); err != nil {
		t.Fatalf("repeat approval should succeed, got %v", err)
	}

	reloaded, _ := svc.GetProjectByID(project.PublicID)
	if reloaded.Status != models.StatusApproved {
		t.Errorf("status = %q, expected %q", reloaded.Status, models.StatusApproved)
	}
}

func TestExtendDeadline_CompoundsFromCurrentExpiry(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)

	first, err := svc.ExtendDeadline(project.PublicID, 10)
	if err != nil {
		t.Fatalf("ExtendDeadline failed: %v", err)
	}
	second, err := svc.ExtendDeadline(project.PublicID, 5)
	if err != nil {
		t.Fatalf("ExtendDeadline failed: %v", err)
	}

	if got := second.Sub(first); got != 5*24*time.Hour {
		t.Errorf("second extension added %v, expected 120h", got)
	}
	if got := first.Sub(project.ExpiresAt); got != 10*24*time.Hour {
		t.Errorf("first extension added %v, expected 240h", got)
	}
}

func TestExtendDeadline_DefaultStep(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)

	newExpiry, err := svc.ExtendDeadline(project.PublicID, 0)
	if err != nil {
		t.Fatalf("ExtendDeadline failed: %v", err)
	}

	if got := newExpiry.Sub(project.ExpiresAt); got != 7*24*time.Hour {
		t.Errorf("default extension added %v, expected 168h", got)
	}
}

func TestHistoryPositionsAreSequential(t *testing.T) {
	svc, _ := newTestWorkflow(t)
	project := createTestProject(t, svc)

	v, _ := svc.AddVersion(project.PublicID, &AddVersionRequest{Name: "v1", AudioURL: "https://x/v1.mp3"})
	_ = svc.SubmitFeedback(project.PublicID, v.PublicID, "ok")
	_ = svc.ApproveVersion(project.PublicID, v.PublicID)
	_, _ = svc.ExtendDeadline(project.PublicID, 3)

	reloaded, _ := svc.GetProjectByID(project.PublicID)
	if len(reloaded.History) != 5 {
		t.Fatalf("expected 5 history entries, got %d", len(reloaded.History))
	}
	for i, entry := range reloaded.History {
		if entry.Position != i+1 {
			t.Errorf("history[%d].Position = %d, expected %d", i, entry.Position, i+1)
		}
	}
}

func TestGetProjectByID_NotFound(t *testing.T) {
	svc, _ := newTestWorkflow(t)

	if _, err := svc.GetProjectByID("missing"); err != ErrProjectNotFound {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestGetProjectByID_ServesFromCache(t *testing.T) {
	db := newTestDB(t)
	cache := NewMemoryProjectCache()
	cfg := &config.ReviewConfig{WindowDays: 30, ExtensionDays: 7}
	svc := NewWorkflowService(db, cache, nil, cfg)

	project, err := svc.CreateProject(&CreateProjectRequest{
		ClientName:  "Ana",
		ClientEmail: "ana@example.com",
		PackageTier: "essencial",
	})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	// Prime the cache, then make the database row unreachable
	if _, err := svc.GetProjectByID(project.PublicID); err != nil {
		t.Fatalf("GetProjectByID failed: %v", err)
	}
	db.Exec("DELETE FROM projects")

	if _, err := svc.GetProjectByID(project.PublicID); err != nil {
		t.Errorf("cached read should still resolve, got %v", err)
	}

	cache.Invalidate(project.PublicID)
	if _, err := svc.GetProjectByID(project.PublicID); err != ErrProjectNotFound {
		t.Errorf("after invalidation expected ErrProjectNotFound, got %v", err)
	}
}
