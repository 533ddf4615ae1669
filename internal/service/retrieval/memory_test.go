package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

func testCorpus() []CorpusEntry {
	return []CorpusEntry{
		{
			Passage: fatwa.PassageRecord{
				SourceID: "quran-2-183",
				Category: fatwa.CategoryQuran,
				Text:     "Le jeûne vous est prescrit comme il a été prescrit à ceux avant vous.",
			},
			Jurisprudence: "maliki",
			Country:       "sn",
		},
		{
			Passage: fatwa.PassageRecord{
				SourceID: "fiqh-voyage-01",
				Category: fatwa.CategoryMalikiFiqh,
				Text:     "Le voyageur peut raccourcir la prière pendant le voyage selon l'école malikite.",
			},
			Jurisprudence: "maliki",
			Country:       "sn",
		},
		{
			Passage: fatwa.PassageRecord{
				SourceID: "hanafi-note-7",
				Category: fatwa.CategoryLocalFatwa,
				Text:     "Avis sur la prière du voyageur selon l'école hanafite.",
			},
			Jurisprudence: "hanafi",
			Country:       "sn",
		},
	}
}

func TestMemoryRetrieverRanksByOverlap(t *testing.T) {
	retriever := NewMemoryRetriever(testCorpus())

	passages, err := retriever.Search(context.Background(), "prière pendant voyage", 10, Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, passages)

	assert.Equal(t, "fiqh-voyage-01", passages[0].SourceID)
	for i := 1; i < len(passages); i++ {
		assert.GreaterOrEqual(t, passages[i-1].RelevanceScore, passages[i].RelevanceScore)
	}
}

func TestMemoryRetrieverAppliesJurisprudenceFilter(t *testing.T) {
	retriever := NewMemoryRetriever(testCorpus())

	passages, err := retriever.Search(context.Background(), "prière voyageur", 10, Filters{Jurisprudence: "maliki"})
	require.NoError(t, err)

	for _, p := range passages {
		assert.NotEqual(t, "hanafi-note-7", p.SourceID)
	}
}

func TestMemoryRetrieverAppliesCategoryFilter(t *testing.T) {
	retriever := NewMemoryRetriever(testCorpus())

	passages, err := retriever.Search(context.Background(), "prière voyageur jeûne", 10, Filters{
		Categories: []fatwa.Category{fatwa.CategoryQuran},
	})
	require.NoError(t, err)

	for _, p := range passages {
		assert.Equal(t, fatwa.CategoryQuran, p.Category)
	}
}

func TestMemoryRetrieverTruncatesToK(t *testing.T) {
	retriever := NewMemoryRetriever(testCorpus())

	passages, err := retriever.Search(context.Background(), "prière voyageur", 1, Filters{})
	require.NoError(t, err)
	assert.Len(t, passages, 1)
}

func TestMemoryRetrieverCancelledContextIsBackendError(t *testing.T) {
	retriever := NewMemoryRetriever(testCorpus())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retriever.Search(ctx, "prière", 10, Filters{})
	assert.ErrorIs(t, err, ErrBackend)
}

func TestMemoryRetrieverExpiredDeadlineIsTimeout(t *testing.T) {
	retriever := NewMemoryRetriever(testCorpus())
	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	_, err := retriever.Search(ctx, "prière", 10, Filters{})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestMemoryRetrieverNoMatchReturnsEmpty(t *testing.T) {
	retriever := NewMemoryRetriever(testCorpus())

	passages, err := retriever.Search(context.Background(), "zzzunrelatedzzz", 10, Filters{})
	require.NoError(t, err)
	assert.Empty(t, passages)
}
