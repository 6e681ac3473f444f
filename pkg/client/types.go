package client

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the canonical project status set. The backend and older rows use a
// mix of English and Korean labels, so every value is normalized on decode.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// NormalizeStatus maps any label the backend has ever used onto the canonical
// set. Unknown labels fall back to pending.
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

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = NormalizeStatus(raw)
	return nil
}

// Project is one interior-design project as returned by the backend.
type Project struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ProjectImage   string    `json:"project_image"`
	ResidenceType  string    `json:"residence_type"`
	SpaceType      string    `json:"space_type"`
	BudgetRange    string    `json:"budget_range"`
	FamilyType     string    `json:"family_type"`
	DesignStyle    string    `json:"design_style"`
	AttachmentPath string    `json:"attachment_path"`
}

// DesignImage is one AI-generated result image for a project.
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

type PendingStatus string

const (
	PendingStatusPending  PendingStatus = "pending"
	PendingStatusApproved PendingStatus = "approved"
	PendingStatusRejected PendingStatus = "rejected"
)

// PendingRegistration is a signup awaiting admin approval.
type PendingRegistration struct {
	ID             int64         `json:"id"`
	UserID         string        `json:"user_id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Role           string        `json:"role"`
	Status         PendingStatus `json:"status"`
	RegisteredAt   time.Time     `json:"registered_at"`
	ApprovedAt     *time.Time    `json:"approved_at,omitempty"`
	ApprovedBy     *string       `json:"approved_by,omitempty"`
	RejectedReason *string       `json:"rejected_reason,omitempty"`
}

// User is an approved account as listed on the admin screen.
type User struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats is the dashboard aggregate for one user.
type Stats struct {
	TotalProjects  int `json:"total_projects"`
	InProgress     int `json:"in_progress"`
	Completed      int `json:"completed"`
	RecentIncrease int `json:"recent_increase"`
}

// Pipeline summary statuses reported by project creation.
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

// PipelineSummary describes what the generation pipeline produced while the
// project was being created.
type PipelineSummary struct {
	Status     string          `json:"status"`
	Count      int             `json:"count"`
	Images     []PipelineImage `json:"images"`
	PreviewURL *string         `json:"preview_url,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

type CreateProjectResult struct {
	Message   string          `json:"message"`
	ProjectID int64           `json:"project_id"`
	Pipeline  PipelineSummary `json:"pipeline"`
}

type RefineResult struct {
	Message string      `json:"message"`
	Image   DesignImage `json:"image"`
}

// LoginPayload is the session payload a successful login returns.
type LoginPayload struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

type RegisterAck struct {
	Message string `json:"message"`
}

// Ack is the generic acknowledgement returned by admin mutations.
type Ack struct {
	Message string `json:"message"`
}
