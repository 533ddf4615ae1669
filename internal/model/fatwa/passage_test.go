package fatwa

import "testing"

func TestSortPassagesDescendingScoreTiesBySourceID(t *testing.T) {
	passages := []PassageRecord{
		{SourceID: "c", RelevanceScore: 0.5},
		{SourceID: "b", RelevanceScore: 0.9},
		{SourceID: "a", RelevanceScore: 0.5},
	}
	SortPassages(passages)

	want := []string{"b", "a", "c"}
	for i, id := range want {
		if passages[i].SourceID != id {
			t.Fatalf("position %d: got %s, want %s", i, passages[i].SourceID, id)
		}
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range []Category{CategoryQuran, CategoryHadith, CategoryMalikiFiqh, CategoryLocalFatwa} {
		if !c.Valid() {
			t.Errorf("category %s should be valid", c)
		}
	}
	if Category("poetry").Valid() {
		t.Error("unknown category accepted")
	}
}
