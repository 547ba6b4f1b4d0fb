package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, status int, reply any) (*httptest.Server, *ChatCompletionRequest) {
	t.Helper()
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestDescribeFace(t *testing.T) {
	reply := map[string]any{
		"choices": []any{map[string]any{
			"index":   0,
			"message": map[string]any{"role": "assistant", "content": `{"age": 42, "gender": "male", "gender_probability": 0.7, "expressions": {"happy": 0.6, "neutral": 0.4}}`},
		}},
	}
	srv, req := newTestServer(t, http.StatusOK, reply)
	c, err := NewClient(srv.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	attrs, err := c.DescribeFace(context.Background(), "m", "describe", "aGVsbG8=")
	if err != nil {
		t.Fatalf("DescribeFace failed: %v", err)
	}
	if attrs.Age != 42 || attrs.Gender != "male" || attrs.Expressions["happy"] != 0.6 {
		t.Errorf("unexpected attributes %+v", attrs)
	}
	if req.Model != "m" || len(req.Messages) != 1 {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestPartListContent(t *testing.T) {
	reply := map[string]any{
		"choices": []any{map[string]any{
			"message": map[string]any{"role": "assistant", "content": []any{map[string]any{"type": "text", "text": `{"faces": []}`}}},
		}},
	}
	srv, _ := newTestServer(t, http.StatusOK, reply)
	c, err := NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	locs, err := c.LocateFaces(context.Background(), "m", "locate", "")
	if err != nil {
		t.Fatalf("LocateFaces failed: %v", err)
	}
	if len(locs.Faces) != 0 {
		t.Errorf("Expected no faces, got %d", len(locs.Faces))
	}
}

func TestServerError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, map[string]any{"error": "boom"})
	c, err := NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := c.SimpleQuery(context.Background(), "m", "hi", ""); err == nil {
		t.Error("Expected error for status 500")
	}
	if _, err := NewClient("localhost:8080", 0); err == nil {
		t.Error("Expected error for URL without scheme")
	}
}
