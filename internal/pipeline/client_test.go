package pipeline

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	var gotPrompt, gotVariations, gotFilename string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/generate", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(10<<20))
		gotPrompt = r.FormValue("prompt")
		gotVariations = r.FormValue("variations")

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		file.Close()
		gotFilename = header.Filename

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"images": ["` + base64.StdEncoding.EncodeToString([]byte("img-a")) + `",
			           "` + base64.StdEncoding.EncodeToString([]byte("img-b")) + `"],
			"warnings": ["low vram"]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	variants, warnings, err := c.Generate(context.Background(), GenerateRequest{
		Prompt:     "모던 스타일 거실",
		Variations: 2,
		ImageName:  "room.jpg",
		Image:      strings.NewReader("source-bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, "모던 스타일 거실", gotPrompt)
	assert.Equal(t, "2", gotVariations)
	assert.Equal(t, "room.jpg", gotFilename)

	require.Len(t, variants, 2)
	assert.Equal(t, []byte("img-a"), variants[0].Data)
	assert.Equal(t, []byte("img-b"), variants[1].Data)
	assert.Equal(t, []string{"low vram"}, warnings)
}

func TestClient_GenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail": "model loading"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, _, err := c.Generate(context.Background(), GenerateRequest{Prompt: "x", Variations: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model loading")
}

func TestClient_GenerateSkipsBadImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"images": ["not base64!!!", "` +
			base64.StdEncoding.EncodeToString([]byte("ok")) + `"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	variants, _, err := c.Generate(context.Background(), GenerateRequest{Prompt: "x", Variations: 2})
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, []byte("ok"), variants[0].Data)
}

func TestClient_Refine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/refine", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "1", r.FormValue("variations"))
		w.Write([]byte(`{"images": ["` + base64.StdEncoding.EncodeToString([]byte("refined")) + `"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	variant, _, err := c.Refine(context.Background(), RefineRequest{
		Prompt: "조명을 더 밝게",
		Image:  strings.NewReader("original"),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("refined"), variant.Data)
}

func TestClient_RefineEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"images": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, _, err := c.Refine(context.Background(), RefineRequest{Prompt: "x", Image: strings.NewReader("y")})
	assert.Error(t, err)
}

func TestClient_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	assert.True(t, c.Healthy(context.Background()))

	srv.Close()
	assert.False(t, c.Healthy(context.Background()))
}

func TestTimeoutTiers(t *testing.T) {
	c := NewClient("http://localhost:9100", nil)
	assert.Equal(t, DefaultTimeout, c.healthClient.Timeout)
	assert.Equal(t, GenerateTimeout, c.generateClient.Timeout)
	assert.Equal(t, RefineTimeout, c.refineClient.Timeout)
}
