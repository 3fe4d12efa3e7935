package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   1000,
		Timeout:     2 * time.Second,
	}, nil)
}

func chatReply(content string) string {
	return `{"choices": [{"message": {"role": "assistant", "content": ` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	return perr.Kind
}

func TestOpenAIClient_CompleteStructured(t *testing.T) {
	var gotReq chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(chatReply(`{"category": "bug"}`)))
	})

	schema := Schema{Name: "ticket_classification", Definition: json.RawMessage(`{"type": "object"}`)}
	content, err := client.CompleteStructured(context.Background(), "classify this", schema)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != `{"category": "bug"}` {
		t.Fatalf("content = %q", content)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_schema" {
		t.Fatalf("expected json_schema response format, got %+v", gotReq.ResponseFormat)
	}
	if gotReq.ResponseFormat.JSONSchema == nil || gotReq.ResponseFormat.JSONSchema.Name != "ticket_classification" {
		t.Fatalf("schema name missing: %+v", gotReq.ResponseFormat.JSONSchema)
	}
}

func TestOpenAIClient_CompleteText_NoResponseFormat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResponseFormat != nil {
			t.Errorf("free-text call must not set response_format")
		}
		w.Write([]byte(chatReply("hello")))
	})

	content, err := client.CompleteText(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != "hello" {
		t.Fatalf("content = %q", content)
	}
}

func TestOpenAIClient_NoAPIKey(t *testing.T) {
	client := NewOpenAIClient(Config{BaseURL: "http://localhost:0"}, nil)
	_, err := client.CompleteText(context.Background(), "p")
	if kindOf(t, err) != KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestOpenAIClient_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := client.CompleteText(context.Background(), "p")
	if kindOf(t, err) != KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestOpenAIClient_Refusal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "", "refusal": "cannot comply"}}]}`))
	})
	_, err := client.CompleteText(context.Background(), "p")
	if kindOf(t, err) != KindRefusal {
		t.Fatalf("expected refusal error, got %v", err)
	}
}

func TestOpenAIClient_UnsupportedResponseFormat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"message": "Invalid parameter: response_format", "type": "invalid_request_error"}}`))
	})

	schema := Schema{Name: "s", Definition: json.RawMessage(`{}`)}
	_, err := client.CompleteStructured(context.Background(), "p", schema)
	if kindOf(t, err) != KindUnsupported {
		t.Fatalf("expected unsupported error, got %v", err)
	}

	// The same API error on a free-text call is not "unsupported".
	_, err = client.CompleteText(context.Background(), "p")
	if kindOf(t, err) != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})
	_, err := client.CompleteText(context.Background(), "p")
	if kindOf(t, err) != KindMalformed {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestOpenAIClient_EmptyContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("   ")))
	})
	_, err := client.CompleteText(context.Background(), "p")
	if kindOf(t, err) != KindMalformed {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestOpenAIClient_Timeout(t *testing.T) {
	slow := func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(chatReply("late")))
	}
	srv := httptest.NewServer(http.HandlerFunc(slow))
	t.Cleanup(srv.Close)

	client := NewOpenAIClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
	}, nil)

	_, err := client.CompleteText(context.Background(), "p")
	if kindOf(t, err) != KindTransport {
		t.Fatalf("expected transport error on timeout, got %v", err)
	}
}

func TestOpenAIClient_ConnectionError(t *testing.T) {
	client := NewOpenAIClient(Config{
		APIKey:  "test-key",
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Timeout: time.Second,
	}, nil)
	_, err := client.CompleteText(context.Background(), "p")
	if kindOf(t, err) != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}
