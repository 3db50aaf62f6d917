package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/todoman/internal/model"
)

// serveAndCaptureLog はハンドラーをロギングミドルウェア越しに実行し、出力されたログを返す。
func serveAndCaptureLog(t *testing.T, req *http.Request, h http.HandlerFunc) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	NewLoggingMiddleware(logger)(h).ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

// TestLoggingMiddleware_LogsRequestFields はリクエストログに必要なフィールドが含まれることを検証する。
func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	entry := serveAndCaptureLog(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %q, want %q", entry["msg"], "http_request")
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %q, want %q", entry["method"], "GET")
	}
	if entry["path"] != "/dashboard" {
		t.Errorf("path = %q, want %q", entry["path"], "/dashboard")
	}
	if status, ok := entry["status"].(float64); !ok || status != 200 {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v, want >= 0", entry["duration_ms"])
	}
}

// TestLoggingMiddleware_IncludesUserAndRequestID は認証済みユーザーIDとリクエストIDがログに含まれることを検証する。
func TestLoggingMiddleware_IncludesUserAndRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	ctx := ContextWithUser(req.Context(), &model.User{ID: 123})
	ctx = contextWithRequestID(ctx, "req-abc")
	req = req.WithContext(ctx)

	entry := serveAndCaptureLog(t, req, func(w http.ResponseWriter, r *http.Request) {})

	if entry["user_id"] != float64(123) {
		t.Errorf("user_id = %v, want 123", entry["user_id"])
	}
	if entry["request_id"] != "req-abc" {
		t.Errorf("request_id = %v, want %q", entry["request_id"], "req-abc")
	}
}

// TestLoggingMiddleware_Anonymous_OmitsUserID は匿名リクエストではuser_idを出力しないことを検証する。
func TestLoggingMiddleware_Anonymous_OmitsUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	entry := serveAndCaptureLog(t, req, func(w http.ResponseWriter, r *http.Request) {})

	if _, ok := entry["user_id"]; ok {
		t.Errorf("user_id should be omitted, got %v", entry["user_id"])
	}
}

// TestLoggingMiddleware_LevelByStatus はステータスコードに応じたログレベルで出力されることを検証する。
func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantLevel  string
	}{
		{"200はINFO", http.StatusOK, "INFO"},
		{"303はINFO", http.StatusSeeOther, "INFO"},
		{"404はWARN", http.StatusNotFound, "WARN"},
		{"401はWARN", http.StatusUnauthorized, "WARN"},
		{"503はERROR", http.StatusServiceUnavailable, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/todos", nil)
			entry := serveAndCaptureLog(t, req, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			if status := int(entry["status"].(float64)); status != tt.statusCode {
				t.Errorf("status = %d, want %d", status, tt.statusCode)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
		})
	}
}

// TestLoggingMiddleware_BodyWriteCapture はWriteHeaderを呼ばずに書き込んだ場合も200が記録されることを検証する。
func TestLoggingMiddleware_BodyWriteCapture(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	entry := serveAndCaptureLog(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})

	if status := int(entry["status"].(float64)); status != 200 {
		t.Errorf("status = %d, want 200", status)
	}
}
