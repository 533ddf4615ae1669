package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

func TestParseFiltersAcceptsRecognizedKeys(t *testing.T) {
	filters, err := ParseFilters(map[string]string{
		"jurisprudence": "maliki",
		"country":       "sn",
		"category":      "quran, hadith",
	})
	require.NoError(t, err)

	assert.Equal(t, "maliki", filters.Jurisprudence)
	assert.Equal(t, "sn", filters.Country)
	assert.ElementsMatch(t, []fatwa.Category{fatwa.CategoryQuran, fatwa.CategoryHadith}, filters.Categories)
}

func TestParseFiltersRejectsUnknownKey(t *testing.T) {
	_, err := ParseFilters(map[string]string{"region": "dakar"})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "region", cfgErr.Key)
}

func TestParseFiltersSkipsEmptyCategoryParts(t *testing.T) {
	filters, err := ParseFilters(map[string]string{"category": "quran, , hadith, "})
	require.NoError(t, err)
	assert.ElementsMatch(t, []fatwa.Category{fatwa.CategoryQuran, fatwa.CategoryHadith}, filters.Categories)
}

func TestParseFiltersRejectsUnknownCategory(t *testing.T) {
	_, err := ParseFilters(map[string]string{"category": "poetry"})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestParseFiltersEmptyMapIsValid(t *testing.T) {
	filters, err := ParseFilters(nil)
	require.NoError(t, err)
	assert.Equal(t, Filters{}, filters)
}
