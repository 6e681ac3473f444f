package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the budget for ordinary CRUD calls.
	DefaultTimeout = 30 * time.Second

	// CreateProjectTimeout covers the full generation pipeline, which can run
	// for minutes.
	CreateProjectTimeout = 4 * time.Minute

	// RefineTimeout covers single-image refinement.
	RefineTimeout = 3 * time.Minute
)

// Client is a stateless, typed view of the Assemble backend. One method per
// endpoint; every method logs before returning the error. The acting identity
// is always an explicit parameter; authorization is the backend's decision.
type Client struct {
	baseURL       string
	logger        *zap.Logger
	defaultClient *http.Client
	createClient  *http.Client
	refineClient  *http.Client
}

// New creates a client against the given base URL (see ResolveBaseURL).
// A nil logger disables logging.
func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		logger:        logger,
		defaultClient: &http.Client{Timeout: DefaultTimeout},
		createClient:  &http.Client{Timeout: CreateProjectTimeout},
		refineClient:  &http.Client{Timeout: RefineTimeout},
	}
}

// BaseURL returns the resolved backend base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RegisterExtra carries the optional registration fields.
type RegisterExtra struct {
	Name  string
	Email string
	Role  string
}

// Register submits a signup request. Success means the request is pending
// admin approval, not that an account exists.
func (c *Client) Register(ctx context.Context, userID, password string, extra RegisterExtra) (*RegisterAck, error) {
	body := map[string]string{
		"user_id":  userID,
		"password": password,
	}
	if extra.Name != "" {
		body["name"] = extra.Name
	}
	if extra.Email != "" {
		body["email"] = extra.Email
	}
	if extra.Role != "" {
		body["role"] = extra.Role
	}

	var out RegisterAck
	if err := c.doJSON(ctx, c.defaultClient, http.MethodPost, "/register", nil, body, &out); err != nil {
		c.logger.Warn("register failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for the session payload.
func (c *Client) Login(ctx context.Context, userID, password string) (*LoginPayload, error) {
	body := map[string]string{
		"user_id":  userID,
		"password": password,
	}

	var out LoginPayload
	if err := c.doJSON(ctx, c.defaultClient, http.MethodPost, "/login", nil, body, &out); err != nil {
		c.logger.Warn("login failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// CreateProjectInput is the multipart payload for project creation.
type CreateProjectInput struct {
	UserID           string
	Title            string
	ResidenceType    string
	SpaceType        string
	BudgetRange      string
	FamilyType       string
	DesignStyle      string
	RefinementPrompt string
	Variations       int
	Image            io.Reader
	ImageFilename    string
}

// CreateProject uploads the project fields plus the source image and waits for
// the generation pipeline. Uses the extended timeout; callers should treat a
// timeout here as a slow pipeline, not a dead backend.
func (c *Client) CreateProject(ctx context.Context, in CreateProjectInput) (*CreateProjectResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"user_id":           in.UserID,
		"title":             in.Title,
		"residence_type":    in.ResidenceType,
		"space_type":        in.SpaceType,
		"budget_range":      in.BudgetRange,
		"family_type":       in.FamilyType,
		"design_style":      in.DesignStyle,
		"refinement_prompt": in.RefinementPrompt,
		"image_variations":  strconv.Itoa(in.Variations),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	if in.Image != nil {
		filename := in.ImageFilename
		if filename == "" {
			filename = "source.jpg"
		}
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			return nil, fmt.Errorf("create image part: %w", err)
		}
		if _, err := io.Copy(part, in.Image); err != nil {
			return nil, fmt.Errorf("copy image: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/projects/create", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.createClient.Do(req)
	if err != nil {
		c.logger.Warn("create project failed", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		err := c.apiError(resp)
		c.logger.Warn("create project failed", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, err
	}

	var out CreateProjectResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Projects lists the user's projects, newest first.
func (c *Client) Projects(ctx context.Context, userID string) ([]Project, error) {
	var out []Project
	if err := c.doJSON(ctx, c.defaultClient, http.MethodGet, "/projects/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		c.logger.Warn("list projects failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

// ProjectImages lists the generated images for a project.
func (c *Client) ProjectImages(ctx context.Context, projectID int64) ([]DesignImage, error) {
	path := fmt.Sprintf("/projects/%d/ai-images", projectID)
	var out []DesignImage
	if err := c.doJSON(ctx, c.defaultClient, http.MethodGet, path, nil, nil, &out); err != nil {
		c.logger.Warn("list project images failed", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

// RefineImage asks the pipeline to rework one generated image according to a
// free-text instruction. Uses the extended refine timeout.
func (c *Client) RefineImage(ctx context.Context, projectID, imageID int64, prompt string) (*RefineResult, error) {
	path := fmt.Sprintf("/projects/%d/ai-images/%d/refine", projectID, imageID)
	body := map[string]string{"refinement_prompt": prompt}

	var out RefineResult
	if err := c.doJSON(ctx, c.refineClient, http.MethodPost, path, nil, body, &out); err != nil {
		c.logger.Warn("refine image failed",
			zap.Int64("project_id", projectID),
			zap.Int64("image_id", imageID),
			zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// UpdateProjectStatus moves a project to a new status.
func (c *Client) UpdateProjectStatus(ctx context.Context, projectID int64, status Status) (*Project, error) {
	path := fmt.Sprintf("/projects/%d/update", projectID)
	body := map[string]string{"status": string(status)}

	var out Project
	if err := c.doJSON(ctx, c.defaultClient, http.MethodPatch, path, nil, body, &out); err != nil {
		c.logger.Warn("update project status failed", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// Stats fetches the dashboard aggregate. This is the one non-critical read:
// any failure is logged and absorbed, and the zero aggregate is returned so
// the dashboard can still render.
func (c *Client) Stats(ctx context.Context, userID string) Stats {
	path := "/projects/" + url.PathEscape(userID) + "/stats"
	var out Stats
	if err := c.doJSON(ctx, c.defaultClient, http.MethodGet, path, nil, nil, &out); err != nil {
		c.logger.Warn("stats fetch failed, returning zero aggregate",
			zap.String("user_id", userID), zap.Error(err))
		return Stats{}
	}
	return out
}

// AdminPendingUsers lists signup requests, optionally filtered by status.
func (c *Client) AdminPendingUsers(ctx context.Context, adminID, statusFilter string) ([]PendingRegistration, error) {
	q := url.Values{"admin_id": {adminID}}
	if statusFilter != "" {
		q.Set("status", statusFilter)
	}

	var out []PendingRegistration
	if err := c.doJSON(ctx, c.defaultClient, http.MethodGet, "/admin/pending-users", q, nil, &out); err != nil {
		c.logger.Warn("list pending users failed", zap.String("admin_id", adminID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

// AdminApprovePendingUser approves a signup request, creating the account.
func (c *Client) AdminApprovePendingUser(ctx context.Context, adminID string, pendingID int64) (*Ack, error) {
	path := fmt.Sprintf("/admin/pending-users/%d/approve", pendingID)
	q := url.Values{"admin_id": {adminID}}

	var out Ack
	if err := c.doJSON(ctx, c.defaultClient, http.MethodPatch, path, q, struct{}{}, &out); err != nil {
		c.logger.Warn("approve pending user failed", zap.Int64("pending_id", pendingID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// AdminRejectPendingUser rejects a signup request with a reason.
func (c *Client) AdminRejectPendingUser(ctx context.Context, adminID string, pendingID int64, reason string) (*Ack, error) {
	path := fmt.Sprintf("/admin/pending-users/%d/reject", pendingID)
	q := url.Values{"admin_id": {adminID}}
	body := map[string]string{"reason": reason}

	var out Ack
	if err := c.doJSON(ctx, c.defaultClient, http.MethodPatch, path, q, body, &out); err != nil {
		c.logger.Warn("reject pending user failed", zap.Int64("pending_id", pendingID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// AdminDeletePendingUser removes a signup request regardless of its status.
func (c *Client) AdminDeletePendingUser(ctx context.Context, adminID string, pendingID int64) (*Ack, error) {
	path := fmt.Sprintf("/admin/pending-users/%d", pendingID)
	q := url.Values{"admin_id": {adminID}}

	var out Ack
	if err := c.doJSON(ctx, c.defaultClient, http.MethodDelete, path, q, nil, &out); err != nil {
		c.logger.Warn("delete pending user failed", zap.Int64("pending_id", pendingID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// AdminUsers lists registered accounts.
func (c *Client) AdminUsers(ctx context.Context, adminID string) ([]User, error) {
	q := url.Values{"admin_id": {adminID}}

	var out []User
	if err := c.doJSON(ctx, c.defaultClient, http.MethodGet, "/admin/users", q, nil, &out); err != nil {
		c.logger.Warn("list users failed", zap.String("admin_id", adminID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

// AdminDeleteUser deletes a user account.
func (c *Client) AdminDeleteUser(ctx context.Context, adminID, targetUserID string) (*Ack, error) {
	path := "/admin/users/" + url.PathEscape(targetUserID)
	q := url.Values{"admin_id": {adminID}}

	var out Ack
	if err := c.doJSON(ctx, c.defaultClient, http.MethodDelete, path, q, nil, &out); err != nil {
		c.logger.Warn("delete user failed", zap.String("target_user_id", targetUserID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, hc *http.Client, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	_ = json.Unmarshal(data, &body)

	msg := body.Error
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	return &APIError{StatusCode: resp.StatusCode, Code: body.Code, Message: msg}
}
