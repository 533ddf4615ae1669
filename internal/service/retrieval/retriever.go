// Package retrieval defines the similarity-search capability consumed by
// the pipeline along with its filter semantics and adapters.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

var (
	// ErrTimeout marks a search abandoned because the deadline elapsed.
	ErrTimeout = errors.New("retrieval timeout")
	// ErrBackend marks any other failure of the retrieval backend.
	ErrBackend = errors.New("retrieval backend error")
)

// ConfigError reports an invalid filter configuration. It is fatal and
// never retried.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid retrieval filter %q: %s", e.Key, e.Reason)
}

// Filters narrows a search by jurisprudence/locale metadata. Zero values
// leave the corresponding dimension unfiltered.
type Filters struct {
	Jurisprudence string
	Country       string
	Categories    []fatwa.Category
}

// Recognized filter keys for ParseFilters.
const (
	filterKeyJurisprudence = "jurisprudence"
	filterKeyCountry       = "country"
	filterKeyCategory      = "category"
)

// ParseFilters validates a raw deployment filter map. Unknown keys and
// unknown category values are configuration errors, raised before any
// backend is touched.
func ParseFilters(raw map[string]string) (Filters, error) {
	var filters Filters
	for key, value := range raw {
		value = strings.TrimSpace(value)
		switch key {
		case filterKeyJurisprudence:
			filters.Jurisprudence = value
		case filterKeyCountry:
			filters.Country = value
		case filterKeyCategory:
			for _, part := range strings.Split(value, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				category := fatwa.Category(part)
				if !category.Valid() {
					return Filters{}, &ConfigError{Key: key, Reason: fmt.Sprintf("unknown category %q", part)}
				}
				filters.Categories = append(filters.Categories, category)
			}
		default:
			return Filters{}, &ConfigError{Key: key, Reason: "unsupported filter key"}
		}
	}
	return filters, nil
}

// allows reports whether a category passes the filter's category set.
func (f Filters) allows(category fatwa.Category) bool {
	if len(f.Categories) == 0 {
		return true
	}
	for _, c := range f.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Retriever performs ranked similarity search over the reference corpus.
// Implementations return at most k passages ordered by descending
// relevance (ties by ascending source id), honor the context deadline,
// and never return partial results alongside an error.
type Retriever interface {
	Search(ctx context.Context, query string, k int, filters Filters) ([]fatwa.PassageRecord, error)
}
