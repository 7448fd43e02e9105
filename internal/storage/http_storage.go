package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PhotoFetcher retrieves a submitted photo's raw bytes. The pipeline needs
// the original encoding intact: EXIF extraction reads the untouched byte
// stream, not a decoded frame.
type PhotoFetcher interface {
	FetchPhoto(ctx context.Context, photoURL string) ([]byte, error)
}

const (
	fetchAttempts = 3
	maxRedirects  = 3
)

// HTTPPhotoFetcher fetches photos over HTTP with bounded retries.
type HTTPPhotoFetcher struct {
	client   *http.Client
	maxBytes int64

	// backoff between attempts, injectable for tests.
	backoff func(attempt int) time.Duration
}

// NewHTTPPhotoFetcher creates a fetcher that refuses responses larger than
// maxBytes.
func NewHTTPPhotoFetcher(maxBytes int64) *HTTPPhotoFetcher {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPPhotoFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (limit: %d)", maxRedirects)
				}
				return nil
			},
		},
		maxBytes: maxBytes,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt+1) * time.Second
		},
	}
}

// FetchPhoto downloads the photo bytes. Transient failures (network errors,
// 5xx) are retried with linear backoff; 4xx responses fail immediately.
func (h *HTTPPhotoFetcher) FetchPhoto(ctx context.Context, photoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Civitas-Photo-Verifier/1.0")

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(h.backoff(attempt - 1)):
			}
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			data, readErr := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
				continue
			}
			if int64(len(data)) > h.maxBytes {
				return nil, fmt.Errorf("photo exceeds size limit of %d bytes", h.maxBytes)
			}
			return data, nil

		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			resp.Body.Close()
			return nil, fmt.Errorf("client error: status code %d", resp.StatusCode)

		default:
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("failed to fetch photo after %d attempts: %w", fetchAttempts, lastErr)
}
