package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
)

func testClient(t *testing.T, srvURL string) Client {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_BASE_URL", srvURL)
	t.Setenv("GEMINI_TIMEOUT_SECONDS", "5")
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func candidateBody(text, finishReason string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content":      map[string]any{"parts": []map[string]any{{"text": text}}},
				"finishReason": finishReason,
			},
		},
	}
}

func TestGenerateContentParsesCandidateText(t *testing.T) {
	var gotBody generateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query")
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(candidateBody("Score: 8\nTidy room.", "STOP"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	text, err := c.GenerateContent(context.Background(), "grade this room", []ImageData{{MimeType: "image/jpeg", Data: []byte{0xff, 0xd8}}})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if !strings.Contains(text, "Score: 8") {
		t.Fatalf("unexpected text %q", text)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 2 {
		t.Fatalf("expected prompt + one inline image, got %+v", gotBody.Contents)
	}
	if gotBody.Contents[0].Parts[1].InlineData == nil {
		t.Fatalf("expected inline_data part")
	}
	if gotBody.GenerationConfig.Temperature != 0.1 {
		t.Fatalf("temperature = %v", gotBody.GenerationConfig.Temperature)
	}
}

func TestGenerateContentToleratesMaxTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candidateBody("Score: 6", "MAX_TOKENS"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	text, err := c.GenerateContent(context.Background(), "grade", nil)
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if text != "Score: 6" {
		t.Fatalf("text = %q", text)
	}
}

func TestGenerateContentRejectsOtherFinishReasons(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candidateBody("partial", "SAFETY"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.GenerateContent(context.Background(), "grade", nil); err == nil {
		t.Fatalf("expected error for SAFETY finish reason")
	}
}

func TestGenerateContentSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.GenerateContent(context.Background(), "grade", nil)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestGenerateContentSurfacesBlockReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"promptFeedback": map[string]any{"blockReason": "SAFETY"},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.GenerateContent(context.Background(), "grade", nil)
	if err == nil || !strings.Contains(err.Error(), "blocked") {
		t.Fatalf("expected block error, got %v", err)
	}
}

func TestGenerateContentSurfacesHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.GenerateContent(context.Background(), "grade", nil)
	if err == nil {
		t.Fatalf("expected http error")
	}
	he, ok := err.(*geminiHTTPError)
	if !ok {
		t.Fatalf("expected geminiHTTPError, got %T", err)
	}
	if he.HTTPStatusCode() != http.StatusForbidden {
		t.Fatalf("status = %d", he.HTTPStatusCode())
	}
}
