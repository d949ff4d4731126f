package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(srv *httptest.Server) Options {
	return Options{
		APIKey:         "sk-good",
		BaseURL:        srv.URL + "/",
		RequestOptions: []option.RequestOption{option.WithMaxRetries(0)},
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("  why did make fail? ", "$ make\nerror: missing target\n")
	want := "Context:\n$ make\nerror: missing target\n\n\nQuestion:\nwhy did make fail?"
	if got != want {
		t.Fatalf("BuildPrompt = %q, want %q", got, want)
	}
}

func TestVerify(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer sk-good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"object":"list","data":[{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"}]}`)
	})
	client := New(testOptions(srv))

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid key", "sk-good", true},
		{"rejected key", "sk-bad", false},
		{"empty key", "  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := client.Verify(context.Background(), tt.key)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if ok != tt.want {
				t.Fatalf("Verify(%q) = %v, want %v", tt.key, ok, tt.want)
			}
		})
	}
}

func TestVerifyServerErrorIsReturned(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	})
	ok, err := New(testOptions(srv)).Verify(context.Background(), "sk-good")
	if ok || err == nil {
		t.Fatalf("expected error for server failure, got ok=%v err=%v", ok, err)
	}
}

func TestAskSendsContextAndQuestion(t *testing.T) {
	var captured struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Run make build first.\n"}}]}`)
	})

	answer, err := New(testOptions(srv)).Ask(context.Background(), "what now?", "$ make test\n")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Content != "Run make build first." || answer.Streamed {
		t.Fatalf("unexpected answer %+v", answer)
	}
	if captured.Model != DefaultModel || captured.MaxTokens != DefaultMaxTokens {
		t.Fatalf("unexpected request params: model=%q max_tokens=%d", captured.Model, captured.MaxTokens)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("expected one user message, got %+v", captured.Messages)
	}
	if !strings.Contains(captured.Messages[0].Content, "$ make test") || !strings.Contains(captured.Messages[0].Content, "what now?") {
		t.Fatalf("prompt missing context or question: %q", captured.Messages[0].Content)
	}
}

func TestAskStreamsDeltas(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant","content":"Hello"},"finish_reason":null}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":" there"},"finish_reason":"stop"}]}`,
		}
		for _, c := range chunks {
			_, _ = io.WriteString(w, "data: "+c+"\n\n")
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	})

	var streamed bytes.Buffer
	opts := testOptions(srv)
	opts.Stream = true
	opts.StreamWriter = &streamed

	answer, err := New(opts).Ask(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !answer.Streamed || answer.Content != "Hello there" {
		t.Fatalf("unexpected answer %+v", answer)
	}
	if streamed.String() != "Hello there\n" {
		t.Fatalf("unexpected streamed output %q", streamed.String())
	}
}

func TestAskRequiresKey(t *testing.T) {
	if _, err := New(Options{}).Ask(context.Background(), "q", ""); err == nil {
		t.Fatal("expected error without api key")
	}
}
