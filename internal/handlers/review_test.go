package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newReviewTestRouter(t *testing.T) (*gin.Engine, *services.WorkflowService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Project{}, &models.Version{}, &models.Feedback{}, &models.HistoryEntry{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	cfg := &config.ReviewConfig{WindowDays: 30, ExtensionDays: 7}
	workflow := services.NewWorkflowService(db, nil, nil, cfg)

	handler := NewReviewHandler(workflow)
	r := gin.New()
	r.GET("/p/:token", handler.GetPreview)
	r.POST("/p/:token/feedback", handler.SubmitFeedback)
	r.POST("/p/:token/approve", handler.Approve)

	return r, workflow
}

func seedPreviewProject(t *testing.T, workflow *services.WorkflowService) (*models.Project, *models.Version) {
	t.Helper()
	project, err := workflow.CreateProject(&services.CreateProjectRequest{
		ClientName:  "Maria Silva",
		ClientEmail: "maria@example.com",
		PackageTier: "premium",
		Title:       "Tema de casamento",
	})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	version, err := workflow.AddVersion(project.PublicID, &services.AddVersionRequest{
		Name:     "Primeira ideia",
		AudioURL: "https://cdn.example.com/v1.mp3",
	})
	if err != nil {
		t.Fatalf("AddVersion failed: %v", err)
	}
	return project, version
}

func TestGetPreview(t *testing.T) {
	r, workflow := newReviewTestRouter(t)
	project, _ := seedPreviewProject(t, workflow)

	token := services.EncodePreviewToken(project.PublicID)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/p/"+token, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200, body: %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	if !strings.Contains(body, "Maria Silva") {
		t.Error("preview should include the client name")
	}
	if !strings.Contains(body, "Primeira ideia") {
		t.Error("preview should include the versions")
	}
	if strings.Contains(body, "maria@example.com") {
		t.Error("preview must not leak the client email")
	}
}

func TestGetPreview_InvalidToken(t *testing.T) {
	r, _ := newReviewTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/p/not-a-real-token", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400 for malformed token", w.Code)
	}
}

func TestGetPreview_WellFormedTokenUnknownProject(t *testing.T) {
	r, _ := newReviewTestRouter(t)

	// Token decodes fine but the project does not exist
	token := services.EncodePreviewToken("deleted-project-id")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/p/"+token, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404 for vanished project", w.Code)
	}
}

func TestSubmitFeedbackEndpoint(t *testing.T) {
	r, workflow := newReviewTestRouter(t)
	project, version := seedPreviewProject(t, workflow)

	token := services.EncodePreviewToken(project.PublicID)
	payload := `{"version_id":"` + version.PublicID + `","content":"Aumenta o baixo"}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/p/"+token+"/feedback", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	reloaded, _ := workflow.GetProjectByID(project.PublicID)
	if reloaded.Status != models.StatusFeedback {
		t.Errorf("status = %q, expected feedback", reloaded.Status)
	}
}

func TestSubmitFeedbackEndpoint_RequiresContent(t *testing.T) {
	r, workflow := newReviewTestRouter(t)
	project, _ := seedPreviewProject(t, workflow)

	token := services.EncodePreviewToken(project.PublicID)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/p/"+token+"/feedback", strings.NewReader(`{"content":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400 for empty content", w.Code)
	}
}

func TestApproveEndpoint(t *testing.T) {
	r, workflow := newReviewTestRouter(t)
	project, version := seedPreviewProject(t, workflow)

	token := services.EncodePreviewToken(project.PublicID)
	payload := `{"version_id":"` + version.PublicID + `"}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/p/"+token+"/approve", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	reloaded, _ := workflow.GetProjectByID(project.PublicID)
	if reloaded.Status != models.StatusApproved {
		t.Errorf("status = %q, expected approved", reloaded.Status)
	}
}

func TestApproveEndpoint_UnknownVersion(t *testing.T) {
	r, workflow := newReviewTestRouter(t)
	project, _ := seedPreviewProject(t, workflow)

	token := services.EncodePreviewToken(project.PublicID)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/p/"+token+"/approve", strings.NewReader(`{"version_id":"ghost"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404 for unknown version", w.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "versão") {
		t.Errorf("error message should name the version, got %q", msg)
	}
}
