package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assemble-interior/assemble-go/internal/projects/domain"
)

// ProjectRepository provides persistence for projects and their generated
// images.
type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
id, user_id, title, COALESCE(description, ''), status,
COALESCE(source_image_url, ''), COALESCE(residence_type, ''),
COALESCE(space_type, ''), COALESCE(budget_range, ''),
COALESCE(family_type, ''), COALESCE(design_style, ''),
COALESCE(refinement_prompt, ''), created_at, updated_at`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Status,
		&p.SourceImageURL, &p.ResidenceType, &p.SpaceType, &p.BudgetRange,
		&p.FamilyType, &p.DesignStyle, &p.RefinementPrompt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = domain.NormalizeStatus(string(p.Status))
	p.AttachmentPath = p.SourceImageURL
	return &p, nil
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	const q = `
INSERT INTO projects (
    user_id, title, description, status, source_image_url,
    residence_type, space_type, budget_range, family_type, design_style,
    refinement_prompt
)
VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''),
        NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''),
        NULLIF($11, ''))
RETURNING ` + projectColumns + `;`

	created, err := scanProject(r.db.QueryRow(ctx, q,
		p.UserID, p.Title, p.Description, string(p.Status), p.SourceImageURL,
		p.ResidenceType, p.SpaceType, p.BudgetRange, p.FamilyType, p.DesignStyle,
		p.RefinementPrompt))
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return created, nil
}

// Get returns one project by id.
func (r *ProjectRepository) Get(ctx context.Context, projectID int64) (*domain.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1;`
	p, err := scanProject(r.db.QueryRow(ctx, q, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByUser returns the user's projects, newest first.
func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]domain.Project, error) {
	const q = `
SELECT ` + projectColumns + `
FROM projects
WHERE user_id = $1
ORDER BY created_at DESC;`

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves the project to a new canonical status.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, projectID int64, status domain.Status) (*domain.Project, error) {
	const q = `
UPDATE projects
SET status = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + projectColumns + `;`

	p, err := scanProject(r.db.QueryRow(ctx, q, projectID, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Stats computes the dashboard aggregate in one query. Legacy rows may still
// hold the old "progress" label, so both spellings count as in-progress.
func (r *ProjectRepository) Stats(ctx context.Context, userID string) (*domain.Stats, error) {
	const q = `
SELECT
    COUNT(*),
    COUNT(*) FILTER (WHERE status IN ('in_progress', 'progress')),
    COUNT(*) FILTER (WHERE status = 'completed'),
    COUNT(*) FILTER (WHERE created_at >= $2)
FROM projects
WHERE user_id = $1;`

	cutoff := time.Now().AddDate(0, 0, -30)
	var s domain.Stats
	err := r.db.QueryRow(ctx, q, userID, cutoff).
		Scan(&s.TotalProjects, &s.InProgress, &s.Completed, &s.RecentIncrease)
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}
	return &s, nil
}

// RecentUserIDs lists owners of projects updated within the window. Used by
// the nightly cache warmer.
func (r *ProjectRepository) RecentUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	const q = `SELECT DISTINCT user_id FROM projects WHERE updated_at >= $1;`
	rows, err := r.db.Query(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// InsertImage records one generated image.
func (r *ProjectRepository) InsertImage(ctx context.Context, projectID int64, imageURL string, sourceImageID *int64) (int64, error) {
	const q = `
INSERT INTO design_images (project_id, image_url, is_selected, source_image_id)
VALUES ($1, $2, FALSE, $3)
RETURNING image_id;`

	var imageID int64
	if err := r.db.QueryRow(ctx, q, projectID, imageURL, sourceImageID).Scan(&imageID); err != nil {
		return 0, fmt.Errorf("insert design image: %w", err)
	}
	return imageID, nil
}

// GetImage returns one generated image scoped to its project.
func (r *ProjectRepository) GetImage(ctx context.Context, projectID, imageID int64) (*domain.DesignImage, error) {
	const q = `
SELECT i.image_id, i.project_id, i.image_url, i.is_selected, i.source_image_id,
       COALESCE(p.design_style, ''), COALESCE(p.residence_type, ''),
       COALESCE(p.space_type, ''), COALESCE(p.budget_range, ''),
       COALESCE(p.family_type, '')
FROM design_images i
JOIN projects p ON p.id = i.project_id
WHERE i.project_id = $1 AND i.image_id = $2;`

	var img domain.DesignImage
	err := r.db.QueryRow(ctx, q, projectID, imageID).
		Scan(&img.ImageID, &img.ProjectID, &img.ImageURL, &img.IsSelected, &img.SourceImageID,
			&img.DesignStyle, &img.ResidenceType, &img.SpaceType, &img.BudgetRange, &img.FamilyType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrImageNotFound
		}
		return nil, err
	}
	return &img, nil
}

// ListImages returns a project's generated images in creation order.
func (r *ProjectRepository) ListImages(ctx context.Context, projectID int64) ([]domain.DesignImage, error) {
	const q = `
SELECT i.image_id, i.project_id, i.image_url, i.is_selected, i.source_image_id,
       COALESCE(p.design_style, ''), COALESCE(p.residence_type, ''),
       COALESCE(p.space_type, ''), COALESCE(p.budget_range, ''),
       COALESCE(p.family_type, '')
FROM design_images i
JOIN projects p ON p.id = i.project_id
WHERE i.project_id = $1
ORDER BY i.image_id;`

	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DesignImage, 0, 8)
	for rows.Next() {
		var img domain.DesignImage
		err := rows.Scan(&img.ImageID, &img.ProjectID, &img.ImageURL, &img.IsSelected,
			&img.SourceImageID, &img.DesignStyle, &img.ResidenceType, &img.SpaceType,
			&img.BudgetRange, &img.FamilyType)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
