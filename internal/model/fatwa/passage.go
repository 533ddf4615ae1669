package fatwa

import "sort"

// Category tags the provenance of a retrieved reference passage.
type Category string

const (
	CategoryQuran      Category = "quran"
	CategoryHadith     Category = "hadith"
	CategoryMalikiFiqh Category = "maliki-fiqh"
	CategoryLocalFatwa Category = "local-fatwa"
)

// Valid reports whether c is one of the recognized passage categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryQuran, CategoryHadith, CategoryMalikiFiqh, CategoryLocalFatwa:
		return true
	}
	return false
}

// PassageRecord is one retrieved reference text. Records are value
// objects: constructed once by a retriever and never mutated.
type PassageRecord struct {
	SourceID       string   `json:"sourceId"`
	Text           string   `json:"text"`
	Category       Category `json:"category"`
	RelevanceScore float64  `json:"relevanceScore"`
	LocaleTag      string   `json:"localeTag"`
}

// SortPassages orders passages by descending relevance score, breaking
// ties by ascending source id so result ordering is deterministic.
func SortPassages(passages []PassageRecord) {
	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].RelevanceScore != passages[j].RelevanceScore {
			return passages[i].RelevanceScore > passages[j].RelevanceScore
		}
		return passages[i].SourceID < passages[j].SourceID
	})
}
