package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/gamalhq/gamal/internal/domain/entity"
	apperrors "github.com/gamalhq/gamal/pkg/errors"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func testMessages() []entity.Message {
	return []entity.Message{
		entity.SystemMessage("You are a test."),
		entity.UserMessage("Where is Paris?"),
	}
}

// === Request shape ===

func TestClient_RequestShape(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotAuth   string
		gotAccept string
		gotBody   chatRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Paris is in France.  "}}]}`))
	}))
	defer srv.Close()

	// Trailing slash on the base URL must not double up in the path.
	client := NewClient(Config{
		BaseURL:   srv.URL + "/",
		APIKey:    "secret-key",
		Model:     "test-model",
		Streaming: true,
	}, testLogger())

	answer, err := client.Chat(context.Background(), testMessages(), nil)
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if answer != "Paris is in France." {
		t.Errorf("answer not trimmed: %q", answer)
	}

	if gotMethod != http.MethodPost || gotPath != "/chat/completions" {
		t.Errorf("request: %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("authorization: %q", gotAuth)
	}
	if gotAccept == "text/event-stream" {
		t.Error("non-streaming request must not ask for an event stream")
	}

	if gotBody.Model != "test-model" {
		t.Errorf("model: %q", gotBody.Model)
	}
	if gotBody.Stream {
		t.Error("stream must stay false without a sink")
	}
	if gotBody.MaxTokens != 400 || gotBody.Temperature != 0 {
		t.Errorf("hyperparameters: max_tokens=%d temperature=%v", gotBody.MaxTokens, gotBody.Temperature)
	}
	if len(gotBody.Stop) != 5 || gotBody.Stop[len(gotBody.Stop)-1] != "INQUIRY: " {
		t.Errorf("stop sequences: %v", gotBody.Stop)
	}
	if !reflect.DeepEqual(gotBody.Messages, testMessages()) {
		t.Errorf("messages: %+v", gotBody.Messages)
	}
}

func TestClient_NoAuthorizationWithoutKey(t *testing.T) {
	headerSet := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, headerSet = r.Header["Authorization"]
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "m"}, testLogger())
	if _, err := client.Chat(context.Background(), testMessages(), nil); err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if headerSet {
		t.Error("authorization header sent without an API key")
	}
}

// === Streaming ===

func TestClient_StreamingDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("accept header: %q", r.Header.Get("Accept"))
		}
		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Stream {
			t.Errorf("expected stream=true request, err=%v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range []string{
			"data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\" Hello\"}}]}\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\" world!\"}}]}\n\n",
			"data: [DONE]\n\n",
		} {
			w.Write([]byte(frame))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "m", Streaming: true}, testLogger())

	var deltas []string
	answer, err := client.Chat(context.Background(), testMessages(), func(delta string) {
		deltas = append(deltas, delta)
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if answer != "Hello world!" {
		t.Errorf("answer: %q", answer)
	}
	if !reflect.DeepEqual(deltas, []string{"Hello", " world!"}) {
		t.Errorf("deltas: %v", deltas)
	}
}

func TestClient_StreamingDisabledFallsBackToWhole(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"choices":[{"message":{"content":"whole answer"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "m", Streaming: false}, testLogger())

	var deltas []string
	answer, err := client.Chat(context.Background(), testMessages(), func(delta string) {
		deltas = append(deltas, delta)
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if gotBody.Stream {
		t.Error("streaming disabled in config must force stream=false")
	}
	if answer != "whole answer" {
		t.Errorf("answer: %q", answer)
	}
	// The sink still fires, once, with the whole answer.
	if !reflect.DeepEqual(deltas, []string{"whole answer"}) {
		t.Errorf("deltas: %v", deltas)
	}
}

// === Failures ===

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("model overloaded"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "m"}, testLogger())
	_, err := client.Chat(context.Background(), testMessages(), nil)
	if !apperrors.IsLLMError(err) {
		t.Fatalf("expected LLMError, got %v", err)
	}
	if !strings.Contains(err.Error(), "chat endpoint returned 503") ||
		!strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("error lacks detail: %v", err)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "m"}, testLogger())
	if _, err := client.Chat(context.Background(), testMessages(), nil); !apperrors.IsLLMError(err) {
		t.Fatalf("expected LLMError, got %v", err)
	}
}

func TestClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "m"}, testLogger())
	_, err := client.Chat(context.Background(), testMessages(), nil)
	if !apperrors.IsLLMError(err) {
		t.Fatalf("expected LLMError, got %v", err)
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Errorf("error lacks detail: %v", err)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	client := NewClient(Config{BaseURL: srv.URL, Model: "m"}, testLogger())
	if _, err := client.Chat(context.Background(), testMessages(), nil); !apperrors.IsLLMError(err) {
		t.Fatalf("expected LLMError, got %v", err)
	}
}
