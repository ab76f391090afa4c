package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kapu/roast-rag-go/internal/domain"
	"go.uber.org/zap"
)

type fakeRoaster struct {
	mu       sync.Mutex
	calls    []domain.RoastRequest
	deadline bool
	record   domain.RoastRecord
}

func (f *fakeRoaster) Roast(ctx context.Context, req domain.RoastRequest) domain.RoastRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	_, f.deadline = ctx.Deadline()
	return f.record
}

func newTestRouter(roaster Roaster, cfg HandlerConfig) http.Handler {
	return NewRouter(NewHandler(roaster, cfg, zap.NewNop()), []string{"*"})
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "face.jpg")
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func TestRootReportsRunning(t *testing.T) {
	router := newTestRouter(&fakeRoaster{}, HandlerConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Message != rootMessage {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGenerateRoastSuccess(t *testing.T) {
	roaster := &fakeRoaster{record: domain.RoastRecord{
		UserProfile: domain.UserProfile{DisplayName: "Alex", Archetype: "The Crocs Apologist"},
		Stats:       domain.Stats{BasicScore: 88, RedFlagScore: 40},
	}}
	router := newTestRouter(roaster, HandlerConfig{MaxUploadBytes: 1 << 20, GenerationTimeout: time.Minute})

	body, contentType := multipartBody(t, map[string]string{"name": "Alex", "taste": "Nickelback, Crocs"}, []byte("jpegbytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-roast", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp roastResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "success" || resp.Data.UserProfile.DisplayName != "Alex" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if len(roaster.calls) != 1 {
		t.Fatalf("expected one roast call, got %d", len(roaster.calls))
	}
	got := roaster.calls[0]
	if got.Name != "Alex" || got.Taste != "Nickelback, Crocs" || string(got.Image) != "jpegbytes" {
		t.Fatalf("unexpected request passed through: %+v", got)
	}
	if !roaster.deadline {
		t.Fatalf("expected generation timeout to set a deadline")
	}
}

func TestGenerateRoastWithoutImage(t *testing.T) {
	roaster := &fakeRoaster{}
	router := newTestRouter(roaster, HandlerConfig{MaxUploadBytes: 1 << 20})

	body, contentType := multipartBody(t, map[string]string{"name": "Sam", "taste": "jazz"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-roast", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(roaster.calls) != 1 || roaster.calls[0].HasImage() {
		t.Fatalf("expected one call without image, got %+v", roaster.calls)
	}
	if roaster.deadline {
		t.Fatalf("no deadline expected when timeout is disabled")
	}
}

func TestGenerateRoastPassesNameUntrimmed(t *testing.T) {
	roaster := &fakeRoaster{}
	router := newTestRouter(roaster, HandlerConfig{MaxUploadBytes: 1 << 20})

	body, contentType := multipartBody(t, map[string]string{"name": "  Alex  ", "taste": "Nickelback,\n  Crocs"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-roast", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(roaster.calls) != 1 {
		t.Fatalf("expected one roast call, got %d", len(roaster.calls))
	}
	if got := roaster.calls[0]; got.Name != "  Alex  " || got.Taste != "Nickelback,\n  Crocs" {
		t.Fatalf("form values were altered: %+v", got)
	}
}

func TestGenerateRoastMissingFields(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		field  string
	}{
		{name: "missing name", fields: map[string]string{"taste": "jazz"}, field: "name"},
		{name: "blank name", fields: map[string]string{"name": "  ", "taste": "jazz"}, field: "name"},
		{name: "missing taste", fields: map[string]string{"name": "Sam"}, field: "taste"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			roaster := &fakeRoaster{}
			router := newTestRouter(roaster, HandlerConfig{MaxUploadBytes: 1 << 20})

			body, contentType := multipartBody(t, tc.fields, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-roast", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var errResp errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if errResp.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, errResp.Field)
			}
			if len(roaster.calls) != 0 {
				t.Fatalf("roaster must not be called on invalid input")
			}
		})
	}
}

func TestGenerateRoastRejectsNonMultipart(t *testing.T) {
	router := newTestRouter(&fakeRoaster{}, HandlerConfig{MaxUploadBytes: 1 << 20})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-roast", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateRoastTooLarge(t *testing.T) {
	roaster := &fakeRoaster{}
	router := newTestRouter(roaster, HandlerConfig{MaxUploadBytes: 1024})

	body, contentType := multipartBody(t, map[string]string{"name": "Sam", "taste": "jazz"}, bytes.Repeat([]byte("x"), 64<<10))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-roast", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(roaster.calls) != 0 {
		t.Fatalf("roaster must not be called for oversized uploads")
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(&fakeRoaster{}, HandlerConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/generate-roast", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected CORS headers on preflight, got %v", rec.Header())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&fakeRoaster{}, HandlerConfig{})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "roast_http_requests_total") {
		t.Fatalf("expected roast metrics in exposition output")
	}
}
