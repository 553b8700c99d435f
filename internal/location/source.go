package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Source lists the children of a hierarchy node. An empty parentID lists
// the top-level regions.
type Source interface {
	ListChildren(ctx context.Context, parentID string) ([]Node, error)
}

// HTTPSource reads the hierarchy from the third-party reference service.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: timeout,
	}
}

// listResponse is the single typed envelope the reference service is decoded
// into. Anything that does not fit it is an error, not a shape to sniff.
type listResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

func (s *HTTPSource) ListChildren(ctx context.Context, parentID string) ([]Node, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reqURL := s.baseURL + "/locations"
	if parentID != "" {
		reqURL += "?parent_id=" + url.QueryEscape(parentID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("source: failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: reference service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source: reference service returned status %d", resp.StatusCode)
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("source: failed to decode response: %w", err)
	}

	level := childLevel(parentID)
	nodes := make([]Node, 0, len(payload.Data))
	for _, d := range payload.Data {
		nodes = append(nodes, Node{
			ID:       d.ID,
			Name:     d.Name,
			Level:    level,
			ParentID: parentID,
		})
	}
	return nodes, nil
}
