package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Client talks to the external image generation service.
type Client struct {
	baseURL string
	logger  *zap.Logger

	healthClient   *http.Client
	generateClient *http.Client
	refineClient   *http.Client
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		logger:         logger,
		healthClient:   &http.Client{Timeout: DefaultTimeout},
		generateClient: &http.Client{Timeout: GenerateTimeout},
		refineClient:   &http.Client{Timeout: RefineTimeout},
	}
}

// GenerateRequest carries one generation job. Prompt is the fully assembled
// style prompt; Variations is how many images to produce.
type GenerateRequest struct {
	Prompt     string
	Variations int
	ImageName  string
	Image      io.Reader
}

// RefineRequest re-renders one existing image with an extra instruction.
type RefineRequest struct {
	Prompt    string
	ImageName string
	Image     io.Reader
}

// Variant is one generated image, already decoded from the wire encoding.
type Variant struct {
	Index int
	Data  []byte
}

type generateResp struct {
	Images   []string `json:"images"`
	Warnings []string `json:"warnings"`
	Detail   string   `json:"detail"`
}

// Generate submits the source image and prompt and returns the decoded
// variants plus any warnings the service reported.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]Variant, []string, error) {
	body, contentType, err := encodeJob(req.ImageName, req.Image, map[string]string{
		"prompt":     req.Prompt,
		"variations": strconv.Itoa(req.Variations),
	})
	if err != nil {
		return nil, nil, err
	}
	return c.submit(ctx, c.generateClient, "/generate", body, contentType)
}

// Refine submits one image with a refinement instruction and returns a single
// variant.
func (c *Client) Refine(ctx context.Context, req RefineRequest) (*Variant, []string, error) {
	body, contentType, err := encodeJob(req.ImageName, req.Image, map[string]string{
		"prompt":     req.Prompt,
		"variations": "1",
	})
	if err != nil {
		return nil, nil, err
	}

	variants, warnings, err := c.submit(ctx, c.refineClient, "/refine", body, contentType)
	if err != nil {
		return nil, warnings, err
	}
	if len(variants) == 0 {
		return nil, warnings, fmt.Errorf("pipeline returned no refined image")
	}
	return &variants[0], warnings, nil
}

// Healthy reports whether the generation service answers its health probe.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.healthClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) submit(ctx context.Context, hc *http.Client, path string, body *bytes.Buffer, contentType string) ([]Variant, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Warn("pipeline request failed", zap.String("path", path), zap.Error(err))
		return nil, nil, fmt.Errorf("pipeline request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	var parsed generateResp
	if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return nil, nil, fmt.Errorf("decode pipeline response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := parsed.Detail
		if detail == "" {
			detail = strings.TrimSpace(string(raw))
		}
		c.logger.Warn("pipeline rejected job",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail))
		return nil, parsed.Warnings, fmt.Errorf("pipeline status %d: %s", resp.StatusCode, detail)
	}

	variants := make([]Variant, 0, len(parsed.Images))
	for i, encoded := range parsed.Images {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			c.logger.Warn("pipeline sent undecodable image", zap.Int("index", i), zap.Error(err))
			continue
		}
		variants = append(variants, Variant{Index: i, Data: data})
	}
	return variants, parsed.Warnings, nil
}

func encodeJob(imageName string, image io.Reader, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	if image != nil {
		if imageName == "" {
			imageName = "source.png"
		}
		part, err := w.CreateFormFile("image", imageName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, image); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
