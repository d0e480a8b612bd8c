package ocr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRecognizeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr" {
			t.Errorf("path = %q, want /ocr", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file field: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"store": "Cafe", "total": 12.5}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	got, err := client.Recognize(context.Background(), "receipt.jpg", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got.Store != "Cafe" || got.Total != 12.5 {
		t.Errorf("Recognize() = %+v, want {Cafe 12.5}", got)
	}
}

func TestRecognizeNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "No file uploaded"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Recognize(context.Background(), "receipt.jpg", strings.NewReader("x"))
	if err == nil {
		t.Fatal("Recognize() error = nil, want error")
	}
}

func TestRecognizeTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := NewClient(srv.URL, 50*time.Millisecond)
	_, err := client.Recognize(context.Background(), "receipt.jpg", strings.NewReader("x"))
	if !errors.Is(err, ErrUpstreamTimeout) {
		t.Fatalf("Recognize() error = %v, want ErrUpstreamTimeout", err)
	}
}

func TestRecognizeContextDeadline(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := NewClient(srv.URL, 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Recognize(ctx, "receipt.jpg", strings.NewReader("x"))
	if !errors.Is(err, ErrUpstreamTimeout) {
		t.Fatalf("Recognize() error = %v, want ErrUpstreamTimeout", err)
	}
}

func TestRecognizeMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Recognize(context.Background(), "receipt.jpg", strings.NewReader("x"))
	if err == nil {
		t.Fatal("Recognize() error = nil, want error")
	}
}
