package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("project not found")
	ErrImageNotFound = errors.New("design image not found")
	ErrInvalidStatus = errors.New("invalid project status")
	ErrEmptyPrompt   = errors.New("refinement prompt required")
)

// Status is the canonical project status set. Legacy rows and older clients
// use a mix of English and Korean labels; NormalizeStatus folds them all.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// NormalizeStatus maps any historical label onto the canonical set. Unknown
// labels fall back to pending.
func NormalizeStatus(raw string) Status {
	switch strings.TrimSpace(raw) {
	case "progress", "in_progress", "in-progress", "진행중", "진행 중":
		return StatusInProgress
	case "completed", "완료":
		return StatusCompleted
	case "", "pending", "대기", "대기중":
		return StatusPending
	}
	return StatusPending
}

// Project is a single interior-design request owned by one user.
type Project struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"-"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Status           Status    `json:"status"`
	SourceImageURL   string    `json:"project_image"`
	ResidenceType    string    `json:"residence_type"`
	SpaceType        string    `json:"space_type"`
	BudgetRange      string    `json:"budget_range"`
	FamilyType       string    `json:"family_type"`
	DesignStyle      string    `json:"design_style"`
	RefinementPrompt string    `json:"-"`
	AttachmentPath   string    `json:"attachment_path"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DesignImage is one AI-generated result, carrying the style metadata of the
// project it belongs to.
type DesignImage struct {
	ImageID       int64  `json:"image_id"`
	ProjectID     int64  `json:"project_id"`
	ImageURL      string `json:"image_url"`
	IsSelected    bool   `json:"is_selected"`
	SourceImageID *int64 `json:"source_image_id,omitempty"`
	DesignStyle   string `json:"design_style"`
	ResidenceType string `json:"residence_type"`
	SpaceType     string `json:"space_type"`
	BudgetRange   string `json:"budget_range"`
	FamilyType    string `json:"family_type"`
}

// Stats is the per-user dashboard aggregate. RecentIncrease counts projects
// created within the last 30 days.
type Stats struct {
	TotalProjects  int `json:"total_projects"`
	InProgress     int `json:"in_progress"`
	Completed      int `json:"completed"`
	RecentIncrease int `json:"recent_increase"`
}

// Pipeline summary statuses.
const (
	PipelineCompleted = "completed"
	PipelinePartial   = "partial"
	PipelineFailed    = "failed"
	PipelineSkipped   = "skipped"
)

type PipelineImage struct {
	Index    int    `json:"index"`
	ImageURL string `json:"image_url"`
}

// PipelineSummary reports what the generation pipeline produced during
// project creation. A failed pipeline never fails the creation itself.
type PipelineSummary struct {
	Status     string          `json:"status"`
	Count      int             `json:"count"`
	Images     []PipelineImage `json:"images"`
	PreviewURL *string         `json:"preview_url,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}
