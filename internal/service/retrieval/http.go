package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

// HTTPRetriever queries the remote rag-service over REST.
type HTTPRetriever struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPRetriever builds a retriever against the rag-service base URL.
// The deadline is carried by the per-call context, so the client itself
// has no timeout.
func NewHTTPRetriever(baseURL string, log *zap.Logger) *HTTPRetriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPRetriever{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		log:     log,
	}
}

type searchRequest struct {
	Query   string           `json:"query"`
	TopK    int              `json:"topK"`
	Filters searchReqFilters `json:"filters"`
}

type searchReqFilters struct {
	Jurisprudence string   `json:"jurisprudence,omitempty"`
	Country       string   `json:"country,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}

type searchResponse struct {
	Passages []fatwa.PassageRecord `json:"passages"`
}

// Search posts the query to the rag-service and maps transport failures
// onto the retrieval error taxonomy.
func (h *HTTPRetriever) Search(ctx context.Context, query string, k int, filters Filters) ([]fatwa.PassageRecord, error) {
	categories := make([]string, 0, len(filters.Categories))
	for _, c := range filters.Categories {
		categories = append(categories, string(c))
	}

	body, err := json.Marshal(searchRequest{
		Query: query,
		TopK:  k,
		Filters: searchReqFilters{
			Jurisprudence: filters.Jurisprudence,
			Country:       filters.Country,
			Categories:    categories,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.log.Warn("rag-service returned non-200", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrBackend, resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrBackend, err)
	}

	passages := payload.Passages
	fatwa.SortPassages(passages)
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages, nil
}
