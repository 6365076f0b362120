package file

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestMux(t *testing.T) (*http.ServeMux, *Service) {
	t.Helper()
	svc, _, _, _ := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(discardLogger(), svc).Register(mux)
	return mux, svc
}

func multipartUpload(t *testing.T, groupID, userID, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("groupId", groupID); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := mw.WriteField("userId", userID); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/file/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadEndpoint(t *testing.T) {
	t.Parallel()

	mux, svc := newTestMux(t)

	req := multipartUpload(t, "g1", "alice", "notes.txt", "hello world")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["filename"] != "notes.txt" || resp["file_id"] == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	files, err := svc.List(context.Background(), "g1")
	if err != nil || len(files) != 1 {
		t.Fatalf("List = %+v, %v", files, err)
	}
	if files[0].Size != int64(len("hello world")) {
		t.Fatalf("size = %d", files[0].Size)
	}
}

func TestUploadEndpointRejectsMissingFields(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)

	req := multipartUpload(t, "", "", "notes.txt", "x")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	t.Parallel()

	mux, svc := newTestMux(t)
	f, err := svc.Upload(context.Background(), UploadInput{
		GroupID:    "g1",
		UploadedBy: "alice",
		Name:       "old.txt",
		Size:       1,
		Content:    strings.NewReader("x"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"file_id": f.ID, "userId": "alice"})
	req := httptest.NewRequest(http.MethodDelete, "/file/delete", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := f.ID + " file deleted successfully"
	if resp["message"] != want {
		t.Fatalf("message = %q, want %q", resp["message"], want)
	}
}

func TestDeleteEndpointUnknownFileIsNotFound(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)

	body, _ := json.Marshal(map[string]string{"file_id": "missing"})
	req := httptest.NewRequest(http.MethodDelete, "/file/delete", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDownloadEndpoint(t *testing.T) {
	t.Parallel()

	mux, svc := newTestMux(t)
	f, err := svc.Upload(context.Background(), UploadInput{
		GroupID:    "g1",
		UploadedBy: "alice",
		Name:       "report.pdf",
		Size:       3,
		Content:    strings.NewReader("pdf"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/file/download/"+f.ID+"?userId=bob", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["url"] == "" || resp["filename"] != "report.pdf" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUsageEndpoint(t *testing.T) {
	t.Parallel()

	mux, svc := newTestMux(t)
	if _, err := svc.Upload(context.Background(), UploadInput{
		GroupID:    "g1",
		UploadedBy: "alice",
		Name:       "a.bin",
		Size:       4,
		Content:    strings.NewReader("abcd"),
	}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/file/usage/g1", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		GroupID    string `json:"groupId"`
		UsageBytes int64  `json:"usageBytes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.GroupID != "g1" || resp.UsageBytes != 4 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
