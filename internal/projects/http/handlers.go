package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/assemble-interior/assemble-go/internal/projects/domain"
	"github.com/assemble-interior/assemble-go/internal/projects/service"
)

// Service is the project capability surface the handlers need. Satisfied by
// *service.ProjectService; tests substitute a fake.
type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*domain.Project, *domain.PipelineSummary, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Project, error)
	Images(ctx context.Context, projectID int64) ([]domain.DesignImage, error)
	UpdateStatus(ctx context.Context, projectID int64, rawStatus string) (*domain.Project, error)
	Stats(ctx context.Context, userID string) (*domain.Stats, error)
	Refine(ctx context.Context, projectID, imageID int64, prompt string) (*domain.DesignImage, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// create handles the multipart project creation form. The image part is
// optional; without it the generation pipeline is skipped.
func (h *Handler) create(c *gin.Context) {
	userID := strings.TrimSpace(c.PostForm("user_id"))
	if userID == "" {
		fail(c, http.StatusBadRequest, codeInvalidRequest, "user_id 값이 필요합니다.")
		return
	}

	variations := 1
	for _, key := range []string{"image_variations", "variations", "variation_count"} {
		if raw := c.PostForm(key); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				variations = n
			}
			break
		}
	}

	in := service.CreateInput{
		UserID:           userID,
		Title:            c.PostForm("title"),
		ResidenceType:    c.PostForm("residence_type"),
		SpaceType:        c.PostForm("space_type"),
		BudgetRange:      c.PostForm("budget_range"),
		FamilyType:       c.PostForm("family_type"),
		DesignStyle:      c.PostForm("design_style"),
		RefinementPrompt: c.PostForm("refinement_prompt"),
		Variations:       variations,
	}

	if fh, err := c.FormFile("image"); err == nil {
		file, err := fh.Open()
		if err != nil {
			fail(c, http.StatusBadRequest, codeInvalidRequest, "이미지 파일을 읽을 수 없습니다.")
			return
		}
		defer file.Close()
		in.ImageName = fh.Filename
		in.Image = file
	}

	project, summary, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "프로젝트가 성공적으로 생성되었습니다.",
		"project_id": project.ID,
		"pipeline":   summary,
	})
}

// list returns all projects for the user in the path.
func (h *Handler) list(c *gin.Context) {
	projects, err := h.svc.ListByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) updateStatus(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeInvalidRequest, "status 값이 필요합니다.")
		return
	}

	project, err := h.svc.UpdateStatus(c.Request.Context(), projectID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) listImages(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	images, err := h.svc.Images(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	if images == nil {
		images = []domain.DesignImage{}
	}
	c.JSON(http.StatusOK, images)
}

func (h *Handler) refine(c *gin.Context) {
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}
	imageID, err := strconv.ParseInt(c.Param("image_id"), 10, 64)
	if err != nil {
		fail(c, http.StatusNotFound, codeNotFound, "AI 이미지를 찾을 수 없습니다.")
		return
	}

	var req refineReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.RefinementPrompt) == "" {
		fail(c, http.StatusBadRequest, codeInvalidRequest, "refinement_prompt 값이 필요합니다.")
		return
	}

	image, err := h.svc.Refine(c.Request.Context(), projectID, imageID, req.RefinementPrompt)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "부분 수정 이미지가 생성되었습니다.",
		"image":   image,
	})
}

func projectIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusNotFound, codeNotFound, "프로젝트를 찾을 수 없습니다.")
		return 0, false
	}
	return id, true
}
