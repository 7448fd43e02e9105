package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var photoPayload = []byte("raw photo bytes")

func newTestFetcher(maxBytes int64) *HTTPPhotoFetcher {
	f := NewHTTPPhotoFetcher(maxBytes)
	f.backoff = func(int) time.Duration { return time.Millisecond }
	return f
}

func TestHTTPPhotoFetcher_RetryLogic(t *testing.T) {
	tests := []struct {
		name           string
		responses      []int
		expectRequests int
		expectError    bool
		errorContains  string
	}{
		{
			name:           "success on first attempt",
			responses:      []int{200},
			expectRequests: 1,
		},
		{
			name:           "success on second attempt after 5xx",
			responses:      []int{500, 200},
			expectRequests: 2,
		},
		{
			name:           "4xx client error is not retried",
			responses:      []int{404},
			expectRequests: 1,
			expectError:    true,
			errorContains:  "client error: status code 404",
		},
		{
			name:           "4xx after 5xx stops retrying",
			responses:      []int{500, 404},
			expectRequests: 2,
			expectError:    true,
			errorContains:  "client error: status code 404",
		},
		{
			name:           "persistent 5xx exhausts attempts",
			responses:      []int{500, 502, 503},
			expectRequests: 3,
			expectError:    true,
			errorContains:  "server error: status code 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestCount := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				statusCode := http.StatusInternalServerError
				if requestCount < len(tt.responses) {
					statusCode = tt.responses[requestCount]
				}
				requestCount++

				if statusCode == http.StatusOK {
					w.Write(photoPayload)
					return
				}
				w.WriteHeader(statusCode)
				fmt.Fprintf(w, "Error %d", statusCode)
			}))
			defer server.Close()

			data, err := newTestFetcher(1 << 20).FetchPhoto(context.Background(), server.URL)

			if requestCount != tt.expectRequests {
				t.Errorf("expected %d requests, got %d", tt.expectRequests, requestCount)
			}
			if tt.expectError {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error containing %q, got: %v", tt.errorContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(data, photoPayload) {
				t.Errorf("payload mismatch: got %d bytes", len(data))
			}
		})
	}
}

func TestHTTPPhotoFetcher_NetworkErrorRetry(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount < 3 {
			hj, ok := w.(http.Hijacker)
			if ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}
		w.Write(photoPayload)
	}))
	defer server.Close()

	data, err := newTestFetcher(1 << 20).FetchPhoto(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected success after retries, got: %v", err)
	}
	if requestCount != 3 {
		t.Errorf("expected 3 requests, got %d", requestCount)
	}
	if !bytes.Equal(data, photoPayload) {
		t.Error("payload mismatch after retried fetch")
	}
}

func TestHTTPPhotoFetcher_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 2048))
	}))
	defer server.Close()

	_, err := newTestFetcher(1024).FetchPhoto(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "size limit") {
		t.Errorf("expected a size limit error, got: %v", err)
	}
}

func TestHTTPPhotoFetcher_ContextCancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewHTTPPhotoFetcher(1 << 20)
	f.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.FetchPhoto(ctx, server.URL)
	if err == nil || ctx.Err() == nil {
		t.Errorf("expected cancellation during backoff, got: %v", err)
	}
}
