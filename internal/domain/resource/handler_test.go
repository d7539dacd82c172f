package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jssolutionshub/welltrack/internal/platform/auth"
)

func newTestHandler() (*Handler, *Service) {
	svc, _, _ := newTestService()
	return NewHandler(svc), svc
}

// multipartRequest builds a multipart form with the given fields and an
// optional file part.
func multipartRequest(t *testing.T, target string, fields map[string]string, fileName, fileBody string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := io.WriteString(part, fileBody); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	ctx := context.WithValue(req.Context(), auth.UserIDKey, uuid.New().String())
	ctx = context.WithValue(ctx, auth.UserRoleKey, auth.RoleAdmin)
	return req.WithContext(ctx)
}

func TestCreateHandler_Multipart(t *testing.T) {
	h, svc := newTestHandler()
	e := echo.New()
	req := multipartRequest(t, "/resources", map[string]string{
		"title":    "Peer Support Directory",
		"category": "general",
		"type":     "guide",
		"tags":     "peer, support",
	}, "directory.pdf", "pdf bytes")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var got Resource
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.BlobID == nil {
		t.Error("expected blob id in response")
	}
	if len(got.Tags) != 2 || got.Tags[0] != "peer" || got.Tags[1] != "support" {
		t.Errorf("tags = %v", got.Tags)
	}

	// multipart.Writer labels every file part application/octet-stream; the
	// stored type must come from the file extension instead.
	_, meta, err := svc.blobs.Download(context.Background(), *got.BlobID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if meta.ContentType != "application/pdf" {
		t.Errorf("stored content type = %q", meta.ContentType)
	}
}

func TestPartContentType(t *testing.T) {
	cases := []struct {
		name     string
		declared string
		file     string
		want     string
	}{
		{"declared type kept", "application/pdf", "upload.bin", "application/pdf"},
		{"octet-stream inferred from extension", "application/octet-stream", "guide.pdf", "application/pdf"},
		{"empty inferred from extension", "", "chart.png", "image/png"},
		{"unknown extension keeps declared", "application/octet-stream", "blob", "application/octet-stream"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := partContentType(tc.declared, tc.file); got != tc.want {
				t.Errorf("partContentType(%q, %q) = %q, want %q", tc.declared, tc.file, got, tc.want)
			}
		})
	}
}

func TestCreateHandler_NoFile(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()
	req := multipartRequest(t, "/resources", map[string]string{
		"title":    "Crisis Hotline",
		"category": "mental-health",
	}, "", "")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestCreateHandler_InvalidCategory(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()
	req := multipartRequest(t, "/resources", map[string]string{
		"title":    "X",
		"category": "astrology",
	}, "", "")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Create(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestDownloadFileHandler(t *testing.T) {
	h, svc := newTestHandler()

	r := &Resource{Title: "Stretch Routine", Category: "fitness", CreatedBy: uuid.New()}
	if err := svc.Create(context.Background(), r, pdfUpload("stretch pdf")); err != nil {
		t.Fatalf("setup: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/resources/files/"+*r.BlobID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("blobID")
	c.SetParamValues(*r.BlobID)

	if err := h.DownloadFile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "stretch pdf" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
}

func TestDownloadFileHandler_NotFound(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/resources/files/nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("blobID")
	c.SetParamValues("nope")

	err := h.DownloadFile(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}
