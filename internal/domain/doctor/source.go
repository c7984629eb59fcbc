package doctor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultSourceURL is the public mock API the directory reads from.
const DefaultSourceURL = "https://srijandubey.github.io/campus-api-mock/SRM-C1-25.json"

// maxBodySize caps the remote payload at 10 MB.
const maxBodySize = 10 << 20

// Source produces the raw doctor batch.
type Source interface {
	Fetch(ctx context.Context) ([]RawDoctor, error)
}

// FetchError reports a failed fetch: either a transport error or a non-2xx
// status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch doctors from %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch doctors from %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPSource fetches the doctor list with a single GET.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for url with the given request timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if url == "" {
		url = DefaultSourceURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// URL returns the endpoint the source reads from.
func (s *HTTPSource) URL() string { return s.url }

func (s *HTTPSource) Fetch(ctx context.Context) ([]RawDoctor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: s.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: s.url, StatusCode: resp.StatusCode, Err: err}
	}
	raw, err := DecodeRaw(body)
	if err != nil {
		return nil, &FetchError{URL: s.url, StatusCode: resp.StatusCode, Err: err}
	}
	return raw, nil
}
