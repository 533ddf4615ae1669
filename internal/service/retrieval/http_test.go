package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

func TestHTTPRetrieverSearchSuccess(t *testing.T) {
	var got searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(searchResponse{Passages: []fatwa.PassageRecord{
			{SourceID: "b", Category: fatwa.CategoryHadith, Text: "second", RelevanceScore: 0.4},
			{SourceID: "a", Category: fatwa.CategoryQuran, Text: "first", RelevanceScore: 0.9},
		}})
	}))
	defer server.Close()

	retriever := NewHTTPRetriever(server.URL, nil)
	passages, err := retriever.Search(context.Background(), "prière en voyage", 5, Filters{
		Jurisprudence: "maliki",
		Country:       "sn",
	})
	require.NoError(t, err)

	assert.Equal(t, "prière en voyage", got.Query)
	assert.Equal(t, 5, got.TopK)
	assert.Equal(t, "maliki", got.Filters.Jurisprudence)

	require.Len(t, passages, 2)
	assert.Equal(t, "a", passages[0].SourceID)
	assert.Equal(t, "b", passages[1].SourceID)
}

func TestHTTPRetrieverTruncatesToK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchResponse{Passages: []fatwa.PassageRecord{
			{SourceID: "a", RelevanceScore: 0.9},
			{SourceID: "b", RelevanceScore: 0.8},
			{SourceID: "c", RelevanceScore: 0.7},
		}})
	}))
	defer server.Close()

	retriever := NewHTTPRetriever(server.URL, nil)
	passages, err := retriever.Search(context.Background(), "q", 2, Filters{})
	require.NoError(t, err)
	assert.Len(t, passages, 2)
}

func TestHTTPRetrieverNon200IsBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	retriever := NewHTTPRetriever(server.URL, nil)
	_, err := retriever.Search(context.Background(), "q", 5, Filters{})
	assert.ErrorIs(t, err, ErrBackend)
}

func TestHTTPRetrieverDeadlineIsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	retriever := NewHTTPRetriever(server.URL, nil)
	_, err := retriever.Search(ctx, "q", 5, Filters{})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHTTPRetrieverUnreachableIsBackendError(t *testing.T) {
	retriever := NewHTTPRetriever("http://127.0.0.1:1", nil)
	_, err := retriever.Search(context.Background(), "q", 5, Filters{})
	assert.ErrorIs(t, err, ErrBackend)
}

func TestHTTPRetrieverMalformedResponseIsBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	retriever := NewHTTPRetriever(server.URL, nil)
	_, err := retriever.Search(context.Background(), "q", 5, Filters{})
	assert.ErrorIs(t, err, ErrBackend)
}
