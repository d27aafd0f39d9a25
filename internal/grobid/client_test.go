package grobid

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient()
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %s, want %s", c.baseURL, DefaultBaseURL)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}
}

func TestNewClient_WithOptions(t *testing.T) {
	c := NewClient(WithBaseURL("http://grobid:8070/"), WithTimeout(30*time.Second))
	if c.BaseURL() != "http://grobid:8070" {
		t.Errorf("BaseURL() = %s, want trailing slash trimmed", c.BaseURL())
	}
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", c.httpClient.Timeout)
	}
}

func TestIsAlive(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"true", http.StatusOK, "true", true},
		{"alive text", http.StatusOK, "GROBID is alive", true},
		{"ok", http.StatusOK, " OK ", true},
		{"false", http.StatusOK, "false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != aliveEndpoint {
					t.Errorf("path = %s, want %s", r.URL.Path, aliveEndpoint)
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(WithBaseURL(srv.URL))
			if got := c.IsAlive(context.Background()); got != tt.want {
				t.Errorf("IsAlive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAlive_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if NewClient(WithBaseURL(url)).IsAlive(context.Background()) {
		t.Error("IsAlive() = true for closed server")
	}
}

func TestPing_Unavailable(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	busy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "overloaded")
	}))
	defer busy.Close()

	for name, url := range map[string]string{"closed": downURL, "503": busy.URL} {
		t.Run(name, func(t *testing.T) {
			err := NewClient(WithBaseURL(url)).Ping(context.Background())
			if !IsUnavailable(err) {
				t.Errorf("Ping() error = %v, want ErrUnavailable", err)
			}
			if got := Kind(err); got != "Unavailable" {
				t.Errorf("Kind(Ping()) = %q, want Unavailable", got)
			}
		})
	}
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 fake"), 0644); err != nil {
		t.Fatalf("writing PDF: %v", err)
	}
	return path
}

func TestProcessHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != headerEndpoint {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("consolidateHeader") != "0" || q.Get("start") != "1" || q.Get("end") != "2" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get("Accept") != "application/xml" {
			t.Errorf("Accept = %s", r.Header.Get("Accept"))
		}

		f, hdr, err := r.FormFile("input")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "paper.pdf" || string(data) != "%PDF-1.4 fake" {
			t.Errorf("upload = %s (%q)", hdr.Filename, data)
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("part Content-Type = %s, want application/pdf", ct)
		}

		io.WriteString(w, "<TEI/>")
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	got, err := c.ProcessHeader(context.Background(), writePDF(t))
	if err != nil {
		t.Fatalf("ProcessHeader() error = %v", err)
	}
	if got != "<TEI/>" {
		t.Errorf("ProcessHeader() = %q, want <TEI/>", got)
	}
}

func TestProcessHeader_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    string
		unavailable bool
	}{
		{"server error", http.StatusInternalServerError, "boom\nstack", "APIError", false},
		{"overloaded", http.StatusServiceUnavailable, "", "APIError", true},
		{"empty body", http.StatusNoContent, "", "InvalidResponse", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(WithBaseURL(srv.URL)).ProcessHeader(context.Background(), writePDF(t))
			if err == nil {
				t.Fatal("ProcessHeader() expected error")
			}
			if got := Kind(err); got != tt.wantKind {
				t.Errorf("Kind(%v) = %s, want %s", err, got, tt.wantKind)
			}
			if got := IsUnavailable(err); got != tt.unavailable {
				t.Errorf("IsUnavailable(%v) = %v, want %v", err, got, tt.unavailable)
			}
		})
	}
}

func TestProcessHeader_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, "<TEI/>")
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond))
	_, err := c.ProcessHeader(context.Background(), writePDF(t))
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("ProcessHeader() error = %v, want ErrNetworkError", err)
	}
}

func TestProcessHeader_MissingFile(t *testing.T) {
	_, err := NewClient().ProcessHeader(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ProcessHeader() error = %v, want not-exist", err)
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 500, Message: "boom", Path: "a.pdf"}
	want := "GROBID API error (status 500): boom (file: a.pdf)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
