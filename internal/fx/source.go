package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Ultramusic201/Anzu/internal/core"
)

// ErrFetchFailed marks any failure of the external rate source. It is
// never fatal for the engine; manual rate entry remains available.
var ErrFetchFailed = errors.New("rate fetch failed")

// Source fetches the average daily rate from the external HTTP
// endpoint. The contract is a single GET returning a JSON object with a
// numeric "promedio" field; any other shape or a non-2xx status is a
// fetch failure.
type Source struct {
	url    string
	client *http.Client
}

func NewSource(url string, timeout time.Duration) *Source {
	return &Source{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *Source) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var payload struct {
		Promedio *float64 `json:"promedio"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: decode body: %v", ErrFetchFailed, err)
	}
	if payload.Promedio == nil || !core.ValidRate(*payload.Promedio) {
		return 0, fmt.Errorf("%w: missing or invalid promedio", ErrFetchFailed)
	}
	return *payload.Promedio, nil
}
