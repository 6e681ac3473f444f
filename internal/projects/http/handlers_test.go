package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assemble-interior/assemble-go/internal/projects/domain"
	"github.com/assemble-interior/assemble-go/internal/projects/service"
)

type fakeService struct {
	createIn  service.CreateInput
	createOut *domain.PipelineSummary
	projects  []domain.Project
	images    []domain.DesignImage
	stats     *domain.Stats
	err       error

	updatedStatus string
	refinePrompt  string
}

func (f *fakeService) Create(_ context.Context, in service.CreateInput) (*domain.Project, *domain.PipelineSummary, error) {
	if in.Image != nil {
		data, _ := io.ReadAll(in.Image)
		in.Image = strings.NewReader(string(data))
	}
	f.createIn = in
	if f.err != nil {
		return nil, nil, f.err
	}
	summary := f.createOut
	if summary == nil {
		summary = &domain.PipelineSummary{Status: domain.PipelineSkipped, Images: []domain.PipelineImage{}}
	}
	return &domain.Project{ID: 42, UserID: in.UserID, Title: in.Title, Status: domain.StatusInProgress}, summary, nil
}

func (f *fakeService) ListByUser(_ context.Context, _ string) ([]domain.Project, error) {
	return f.projects, f.err
}

func (f *fakeService) Images(_ context.Context, _ int64) ([]domain.DesignImage, error) {
	return f.images, f.err
}

func (f *fakeService) UpdateStatus(_ context.Context, projectID int64, rawStatus string) (*domain.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updatedStatus = rawStatus
	return &domain.Project{ID: projectID, Status: domain.NormalizeStatus(rawStatus)}, nil
}

func (f *fakeService) Stats(_ context.Context, _ string) (*domain.Stats, error) {
	return f.stats, f.err
}

func (f *fakeService) Refine(_ context.Context, projectID, imageID int64, prompt string) (*domain.DesignImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.refinePrompt = prompt
	return &domain.DesignImage{ImageID: 7, ProjectID: projectID, ImageURL: "/media/refined.webp", SourceImageID: &imageID}, nil
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	NewHandler(svc).Register(api)
	return r
}

func TestCreate(t *testing.T) {
	svc := &fakeService{createOut: &domain.PipelineSummary{
		Status: domain.PipelineCompleted,
		Count:  1,
		Images: []domain.PipelineImage{{Index: 1, ImageURL: "/media/a.webp"}},
	}}
	r := newTestRouter(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("user_id", "designer1")
	mw.WriteField("title", "거실 리뉴얼")
	mw.WriteField("design_style", "모던")
	mw.WriteField("image_variations", "3")
	part, _ := mw.CreateFormFile("image", "room.jpg")
	part.Write([]byte("source-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/projects/create", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "designer1", svc.createIn.UserID)
	assert.Equal(t, "거실 리뉴얼", svc.createIn.Title)
	assert.Equal(t, "모던", svc.createIn.DesignStyle)
	assert.Equal(t, 3, svc.createIn.Variations)
	assert.Equal(t, "room.jpg", svc.createIn.ImageName)

	var body struct {
		Message   string                 `json:"message"`
		ProjectID int64                  `json:"project_id"`
		Pipeline  domain.PipelineSummary `json:"pipeline"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "프로젝트가 성공적으로 생성되었습니다.", body.Message)
	assert.Equal(t, int64(42), body.ProjectID)
	assert.Equal(t, domain.PipelineCompleted, body.Pipeline.Status)
}

func TestCreate_RequiresUserID(t *testing.T) {
	r := newTestRouter(&fakeService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "제목만")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/projects/create", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")
}

func TestList(t *testing.T) {
	svc := &fakeService{projects: []domain.Project{{ID: 1, Title: "첫 프로젝트"}}}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects/designer1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var projects []domain.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "첫 프로젝트", projects[0].Title)
}

func TestList_EmptyIsArray(t *testing.T) {
	r := newTestRouter(&fakeService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects/designer1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestStats(t *testing.T) {
	svc := &fakeService{stats: &domain.Stats{TotalProjects: 4, Completed: 2}}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects/designer1/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var stats domain.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.TotalProjects)
}

func TestUpdateStatus(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	body := strings.NewReader(`{"status": "완료"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/projects/42/update", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "완료", svc.updatedStatus)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	r := newTestRouter(&fakeService{err: domain.ErrNotFound})

	body := strings.NewReader(`{"status": "completed"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/projects/42/update", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestListImages(t *testing.T) {
	svc := &fakeService{images: []domain.DesignImage{{ImageID: 1, ImageURL: "/media/a.webp"}}}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects/42/ai-images", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var images []domain.DesignImage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &images))
	require.Len(t, images, 1)
}

func TestRefine(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	body := strings.NewReader(`{"refinement_prompt": "조명을 더 밝게"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/projects/42/ai-images/7/refine", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "조명을 더 밝게", svc.refinePrompt)
	assert.Contains(t, w.Body.String(), "부분 수정 이미지가 생성되었습니다.")
}

func TestRefine_RequiresPrompt(t *testing.T) {
	r := newTestRouter(&fakeService{})

	body := strings.NewReader(`{"refinement_prompt": ""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/projects/42/ai-images/7/refine", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "refinement_prompt")
}

func TestRefine_ImageNotFound(t *testing.T) {
	r := newTestRouter(&fakeService{err: domain.ErrImageNotFound})

	body := strings.NewReader(`{"refinement_prompt": "밝게"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/projects/42/ai-images/7/refine", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "AI 이미지를 찾을 수 없습니다.")
}
