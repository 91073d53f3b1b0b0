package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AwardScanner/internal/config"
)

func testClient(t *testing.T, endpoint string, retries, delayMS int) *ChatGPTClient {
	t.Helper()
	c := NewChatGPTClient(config.ChatGPTConfig{
		APIKey:   "test-key",
		Endpoint: endpoint,
		Model:    "gpt-test",
	}, config.ExtractionConfig{Retries: retries, RetryDelayMS: delayMS}, nil)
	if c == nil {
		t.Fatalf("client unexpectedly nil")
	}
	return c
}

func TestCompleteChoicesShape(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload["model"] != "gpt-test" {
			t.Errorf("unexpected model: %v", payload["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "{\"winners\": []}"}}]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 0, 1)
	out, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"winners": []}` {
		t.Fatalf("unexpected payload: %q", out)
	}
}

func TestCompleteRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream overloaded", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"text": "늦게라도 도착한 응답"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 2, 1)
	out, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if out != "늦게라도 도착한 응답" {
		t.Fatalf("unexpected payload: %q", out)
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 1, 1)
	_, err := c.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error after exhausted retries")
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error lost upstream detail: %v", err)
	}
}

func TestNewChatGPTClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	c := NewChatGPTClient(config.ChatGPTConfig{
		Endpoint: "https://api.openai.com/v1/chat/completions",
		Model:    "gpt-4o-mini",
	}, config.ExtractionConfig{}, nil)
	if c != nil {
		t.Fatalf("client built without an API key")
	}
}

func TestExtractTextShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"plain string", `"그냥 문자열"`, "그냥 문자열"},
		{"content field", `{"content": "본문"}`, "본문"},
		{"content parts", `{"content": {"parts": [{"text": "조각"}]}}`, "조각"},
		{"text field", `{"text": "텍스트"}`, "텍스트"},
		{"choices message", `{"choices": [{"message": {"content": "답변"}}]}`, "답변"},
		{"choices text", `{"choices": [{"text": "구형 답변"}]}`, "구형 답변"},
		{"not json", "  raw body  ", "raw body"},
		{"unknown shape", `{"unexpected": 1}`, ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractText([]byte(tc.raw)); got != tc.want {
				t.Fatalf("ExtractText(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
