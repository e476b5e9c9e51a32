package synapse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rahulptl/synapse-sub001/internal/services"
)

func TestIngestContentSendsBearerAndDecodesID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/content/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-1" {
			t.Fatalf("unexpected auth header: %q", auth)
		}
		var payload ContentRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.FolderID != "folder-1" || payload.Content != "hello" {
			t.Fatalf("unexpected payload: %#v", payload)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"item":    map[string]any{"id": "r1"},
		})
	}))
	defer server.Close()

	client := New(server.URL+"/api/v1", "key-1", server.Client())
	result, err := client.IngestContent(context.Background(), ContentRequest{
		FolderID:    "folder-1",
		Title:       "Note",
		Content:     "hello",
		ContentType: "text",
	})
	if err != nil {
		t.Fatalf("IngestContent failed: %v", err)
	}
	if result.ID != "r1" {
		t.Fatalf("result.ID = %q, want r1", result.ID)
	}
}

func TestUploadFileSendsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/files/upload" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("folder_id"); got != "folder-9" {
			t.Fatalf("folder_id = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("read file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "doc.pdf" {
			t.Fatalf("filename = %q", header.Filename)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]any{
				"id":        "f1",
				"file_url":  "https://files.example/f1",
				"file_path": "uploads/doc.pdf",
			},
		})
	}))
	defer server.Close()

	client := New(server.URL+"/api/v1", "key-1", server.Client())
	result, err := client.UploadFile(context.Background(), UploadRequest{
		Data:     []byte("%PDF"),
		FileName: "doc.pdf",
		FolderID: "folder-9",
		Title:    "Doc",
	})
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if result.ID != "f1" || result.FileURL != "https://files.example/f1" {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestListFolders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/folders/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"folders": []map[string]any{
				{"id": "a", "name": "Articles", "children": []map[string]any{
					{"id": "b", "name": "Go", "parent_id": "a"},
				}},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL+"/api/v1", "key-1", server.Client())
	folders, err := client.ListFolders(context.Background())
	if err != nil {
		t.Fatalf("ListFolders failed: %v", err)
	}
	if len(folders) != 1 || folders[0].Name != "Articles" || len(folders[0].Children) != 1 {
		t.Fatalf("unexpected folders: %#v", folders)
	}
}

func TestErrorClassificationFromStatusAndBody(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		wantCode  string
		retryable bool
	}{
		{"server error retryable", http.StatusBadGateway, `{"detail":"upstream"}`, "", true},
		{"bad request terminal", http.StatusBadRequest, `{"detail":"missing folder_id"}`, services.CodeBadPayload, false},
		{"validation error terminal", http.StatusUnprocessableEntity, `{}`, services.CodeBadPayload, false},
		{"unauthorized terminal", http.StatusUnauthorized, `{"detail":"bad key"}`, services.CodeAuthRejected, false},
		{"explicit remote code wins", http.StatusBadRequest, `{"code":"MISSING_SESSION_KEY"}`, services.CodeMissingSessionKey, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := New(server.URL+"/api/v1", "key-1", server.Client())
			_, err := client.IngestContent(context.Background(), ContentRequest{Title: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := services.CodeOf(err); got != tc.wantCode {
				t.Fatalf("CodeOf = %q, want %q", got, tc.wantCode)
			}
			if got := services.Retryable(err); got != tc.retryable {
				t.Fatalf("Retryable = %v, want %v", got, tc.retryable)
			}
		})
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force connection refused

	client := New(server.URL+"/api/v1", "key-1", http.DefaultClient)
	_, err := client.IngestContent(context.Background(), ContentRequest{Title: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.Retryable(err) {
		t.Fatalf("transport failures must be retryable: %v", err)
	}
	if !strings.Contains(err.Error(), "request failed") {
		t.Fatalf("unexpected error text: %v", err)
	}
}
