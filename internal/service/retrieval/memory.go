package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

// CorpusEntry is one reference passage plus the jurisprudence/locale
// metadata it is filtered on.
type CorpusEntry struct {
	Passage       fatwa.PassageRecord `json:"passage"`
	Jurisprudence string              `json:"jurisprudence"`
	Country       string              `json:"country"`
}

// MemoryRetriever is a lexical-overlap retriever over an in-process
// corpus. It backs tests and deployments without a vector backend; the
// HTTP adapter is the production path.
type MemoryRetriever struct {
	corpus []CorpusEntry
}

// NewMemoryRetriever wraps a fixed corpus. The corpus is read-only after
// construction, so the retriever is safe for concurrent use.
func NewMemoryRetriever(corpus []CorpusEntry) *MemoryRetriever {
	return &MemoryRetriever{corpus: corpus}
}

// LoadCorpus reads a JSON corpus file produced by the ingestion tooling.
func LoadCorpus(path string) ([]CorpusEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var corpus []CorpusEntry
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return corpus, nil
}

// Search scores every corpus entry by token overlap with the query,
// applies the filters, and returns the top k passages.
func (m *MemoryRetriever) Search(ctx context.Context, query string, k int, filters Filters) ([]fatwa.PassageRecord, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if k <= 0 {
		return nil, nil
	}

	terms := tokenize(query)
	var results []fatwa.PassageRecord
	for _, entry := range m.corpus {
		if !m.matches(entry, filters) {
			continue
		}
		score := overlapScore(terms, entry.Passage.Text)
		if score <= 0 {
			continue
		}
		passage := entry.Passage
		passage.RelevanceScore = score
		results = append(results, passage)
	}

	fatwa.SortPassages(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *MemoryRetriever) matches(entry CorpusEntry, filters Filters) bool {
	if filters.Jurisprudence != "" && entry.Jurisprudence != "" &&
		!strings.EqualFold(entry.Jurisprudence, filters.Jurisprudence) {
		return false
	}
	if filters.Country != "" && entry.Country != "" &&
		!strings.EqualFold(entry.Country, filters.Country) {
		return false
	}
	return filters.allows(entry.Passage.Category)
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		token := strings.Trim(field, ".,;:!?\"'()[]")
		if len(token) > 2 {
			tokens[token] = true
		}
	}
	return tokens
}

// overlapScore is the fraction of query tokens found in the passage.
func overlapScore(terms map[string]bool, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	normalized := strings.ToLower(text)
	hits := 0
	for term := range terms {
		if strings.Contains(normalized, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
