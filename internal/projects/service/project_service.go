package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/assemble-interior/assemble-go/internal/pipeline"
	"github.com/assemble-interior/assemble-go/internal/projects/domain"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	Create(ctx context.Context, p *domain.Project) (*domain.Project, error)
	Get(ctx context.Context, projectID int64) (*domain.Project, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Project, error)
	UpdateStatus(ctx context.Context, projectID int64, status domain.Status) (*domain.Project, error)
	Stats(ctx context.Context, userID string) (*domain.Stats, error)
	RecentUserIDs(ctx context.Context, since time.Time) ([]string, error)
	InsertImage(ctx context.Context, projectID int64, imageURL string, sourceImageID *int64) (int64, error)
	GetImage(ctx context.Context, projectID, imageID int64) (*domain.DesignImage, error)
	ListImages(ctx context.Context, projectID int64) ([]domain.DesignImage, error)
}

// Generator is the AI pipeline surface.
type Generator interface {
	Generate(ctx context.Context, req pipeline.GenerateRequest) ([]pipeline.Variant, []string, error)
	Refine(ctx context.Context, req pipeline.RefineRequest) (*pipeline.Variant, []string, error)
}

// ImageStore persists image bytes and resolves them back by public URL.
type ImageStore interface {
	Save(baseName string, r io.Reader) (string, error)
	Open(publicPath string) (io.ReadCloser, error)
}

// Cache holds short-lived stats aggregates. Satisfied by *StatsCache.
type Cache interface {
	Get(ctx context.Context, userID string) (*domain.Stats, error)
	Set(ctx context.Context, userID string, s *domain.Stats) error
	Invalidate(ctx context.Context, userID string) error
}

type ProjectService struct {
	repo      Repository
	generator Generator
	images    ImageStore
	cache     Cache
	logger    *zap.Logger
}

func NewProjectService(repo Repository, generator Generator, images ImageStore, cache Cache, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{repo: repo, generator: generator, images: images, cache: cache, logger: logger}
}

// CreateInput carries one project creation request.
type CreateInput struct {
	UserID           string
	Title            string
	ResidenceType    string
	SpaceType        string
	BudgetRange      string
	FamilyType       string
	DesignStyle      string
	RefinementPrompt string
	Variations       int
	ImageName        string
	Image            io.Reader
}

// Create persists the project, runs the generation pipeline when a source
// image was supplied, and stores whatever the pipeline produced. A pipeline
// failure is reported in the summary but never fails the creation itself.
func (s *ProjectService) Create(ctx context.Context, in CreateInput) (*domain.Project, *domain.PipelineSummary, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "새 인테리어 프로젝트"
	}

	var imageBytes []byte
	if in.Image != nil {
		var err error
		imageBytes, err = io.ReadAll(in.Image)
		if err != nil {
			return nil, nil, fmt.Errorf("read source image: %w", err)
		}
	}

	sourceURL := ""
	if len(imageBytes) > 0 {
		var err error
		sourceURL, err = s.images.Save(in.ImageName, bytes.NewReader(imageBytes))
		if err != nil {
			return nil, nil, fmt.Errorf("store source image: %w", err)
		}
	}

	project, err := s.repo.Create(ctx, &domain.Project{
		UserID:           in.UserID,
		Title:            title,
		Description:      in.UserID + "의 인테리어 요청",
		Status:           domain.StatusInProgress,
		SourceImageURL:   sourceURL,
		ResidenceType:    in.ResidenceType,
		SpaceType:        in.SpaceType,
		BudgetRange:      in.BudgetRange,
		FamilyType:       in.FamilyType,
		DesignStyle:      in.DesignStyle,
		RefinementPrompt: in.RefinementPrompt,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.cache.Invalidate(ctx, in.UserID); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.String("user_id", in.UserID), zap.Error(err))
	}

	if len(imageBytes) == 0 {
		return project, &domain.PipelineSummary{
			Status: domain.PipelineSkipped,
			Reason: "이미지가 제공되지 않았습니다.",
			Images: []domain.PipelineImage{},
		}, nil
	}

	summary := s.runPipeline(ctx, project, in, imageBytes)
	return project, summary, nil
}

func (s *ProjectService) runPipeline(ctx context.Context, project *domain.Project, in CreateInput, imageBytes []byte) *domain.PipelineSummary {
	variations := in.Variations
	if variations < 1 {
		variations = 1
	}

	prompt := buildStylePrompt(in)
	if in.RefinementPrompt != "" {
		prompt = prompt + "\n" + in.RefinementPrompt
	}

	variants, warnings, err := s.generator.Generate(ctx, pipeline.GenerateRequest{
		Prompt:     prompt,
		Variations: variations,
		ImageName:  in.ImageName,
		Image:      bytes.NewReader(imageBytes),
	})
	if err != nil {
		s.logger.Error("pipeline generation failed",
			zap.Int64("project_id", project.ID), zap.Error(err))
		return &domain.PipelineSummary{
			Status: domain.PipelineFailed,
			Reason: fmt.Sprintf("파이프라인 실행 중 오류가 발생했습니다: %v", err),
		}
	}
	if len(variants) == 0 {
		return &domain.PipelineSummary{
			Status: domain.PipelineFailed,
			Reason: "AI 파이프라인이 어떤 이미지도 생성하지 못했습니다.",
		}
	}

	images := make([]domain.PipelineImage, 0, len(variants))
	for i, v := range variants {
		name := fmt.Sprintf("%s_result_%d.webp", in.UserID, i+1)
		url, err := s.images.Save(name, bytes.NewReader(v.Data))
		if err != nil {
			s.logger.Error("storing generated image failed",
				zap.Int64("project_id", project.ID), zap.Int("index", i), zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("이미지 저장 실패 (index=%d)", i+1))
			continue
		}
		if _, err := s.repo.InsertImage(ctx, project.ID, url, nil); err != nil {
			s.logger.Error("recording generated image failed",
				zap.Int64("project_id", project.ID), zap.Int("index", i), zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("이미지 기록 실패 (index=%d)", i+1))
			continue
		}
		images = append(images, domain.PipelineImage{Index: i + 1, ImageURL: url})
	}

	status := domain.PipelineCompleted
	if len(warnings) > 0 {
		status = domain.PipelinePartial
	}
	if len(images) == 0 {
		return &domain.PipelineSummary{
			Status:   domain.PipelineFailed,
			Reason:   "생성된 이미지를 저장하지 못했습니다.",
			Warnings: warnings,
		}
	}

	summary := &domain.PipelineSummary{
		Status:     status,
		Count:      len(images),
		Images:     images,
		PreviewURL: &images[0].ImageURL,
	}
	if len(warnings) > 0 {
		summary.Warnings = warnings
	}
	return summary
}

// buildStylePrompt assembles the Korean style sheet the pipeline expects.
// Empty selections fall back to a generic instruction.
func buildStylePrompt(in CreateInput) string {
	var parts []string
	if in.DesignStyle != "" {
		parts = append(parts, "- 선호 스타일: "+in.DesignStyle)
	}
	if in.ResidenceType != "" {
		parts = append(parts, "- 주거 형태: "+in.ResidenceType)
	}
	if in.SpaceType != "" {
		parts = append(parts, "- 공간 종류: "+in.SpaceType)
	}
	if in.FamilyType != "" {
		parts = append(parts, "- 가족 구성: "+in.FamilyType)
	}
	if in.BudgetRange != "" {
		parts = append(parts, "- 예산 범위: "+in.BudgetRange)
	}
	if len(parts) == 0 {
		return "현실적인 가구 배치를 적용해주세요."
	}
	return strings.Join(parts, "\n")
}

// ListByUser returns the user's projects, newest first.
func (s *ProjectService) ListByUser(ctx context.Context, userID string) ([]domain.Project, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Images lists a project's generated images.
func (s *ProjectService) Images(ctx context.Context, projectID int64) ([]domain.DesignImage, error) {
	if _, err := s.repo.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListImages(ctx, projectID)
}

// UpdateStatus folds the incoming label onto the canonical set and persists
// it. Empty labels are rejected.
func (s *ProjectService) UpdateStatus(ctx context.Context, projectID int64, rawStatus string) (*domain.Project, error) {
	if strings.TrimSpace(rawStatus) == "" {
		return nil, domain.ErrInvalidStatus
	}

	project, err := s.repo.UpdateStatus(ctx, projectID, domain.NormalizeStatus(rawStatus))
	if err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, project.UserID); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.String("user_id", project.UserID), zap.Error(err))
	}
	return project, nil
}

// Stats reads the dashboard aggregate through the cache.
func (s *ProjectService) Stats(ctx context.Context, userID string) (*domain.Stats, error) {
	if cached, err := s.cache.Get(ctx, userID); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("stats cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	stats, err := s.repo.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, userID, stats); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return stats, nil
}

// Refine re-renders one generated image with an extra instruction and records
// the result as a new image linked to its source.
func (s *ProjectService) Refine(ctx context.Context, projectID, imageID int64, prompt string) (*domain.DesignImage, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}

	source, err := s.repo.GetImage(ctx, projectID, imageID)
	if err != nil {
		return nil, err
	}

	rc, err := s.images.Open(source.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("load source image: %w", err)
	}
	defer rc.Close()

	variant, _, err := s.generator.Refine(ctx, pipeline.RefineRequest{
		Prompt:    prompt,
		ImageName: fmt.Sprintf("project_%d_image_%d.webp", projectID, imageID),
		Image:     rc,
	})
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%d_refined.webp", projectID)
	url, err := s.images.Save(name, bytes.NewReader(variant.Data))
	if err != nil {
		return nil, fmt.Errorf("store refined image: %w", err)
	}

	newID, err := s.repo.InsertImage(ctx, projectID, url, &imageID)
	if err != nil {
		return nil, err
	}

	return &domain.DesignImage{
		ImageID:       newID,
		ProjectID:     projectID,
		ImageURL:      url,
		SourceImageID: &imageID,
		DesignStyle:   source.DesignStyle,
		ResidenceType: source.ResidenceType,
		SpaceType:     source.SpaceType,
		BudgetRange:   source.BudgetRange,
		FamilyType:    source.FamilyType,
	}, nil
}

// WarmStatsCache recomputes stats for recently active users. Called from the
// nightly cron job.
func (s *ProjectService) WarmStatsCache(ctx context.Context) (int, error) {
	userIDs, err := s.repo.RecentUserIDs(ctx, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return 0, err
	}

	warmed := 0
	for _, id := range userIDs {
		stats, err := s.repo.Stats(ctx, id)
		if err != nil {
			s.logger.Warn("stats warm failed", zap.String("user_id", id), zap.Error(err))
			continue
		}
		if err := s.cache.Set(ctx, id, stats); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("user_id", id), zap.Error(err))
			continue
		}
		warmed++
	}
	return warmed, nil
}
