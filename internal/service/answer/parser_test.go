package answer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xamsadine/backend/internal/model/fatwa"
	"github.com/xamsadine/backend/internal/service/answer"
)

const fullAnswer = `HUKM: The act is permissible under the stated conditions.
EVIDENCE:
- Quran 2:185 on ease in worship
- Muwatta, Book of Prayer 4
EXPLANATION: The school holds that hardship lifts the obligation in this precise case, based on the cited texts.
ADVICE: Consult a local scholar if your circumstances differ from those described here.`

func TestParseExtractsAllSections(t *testing.T) {
	got, err := answer.Parse(fullAnswer)
	require.NoError(t, err)

	assert.Equal(t, "The act is permissible under the stated conditions.", got.Hukm)
	assert.Equal(t, []string{
		"Quran 2:185 on ease in worship",
		"Muwatta, Book of Prayer 4",
	}, got.Evidence)
	assert.Contains(t, got.Explanation, "hardship lifts the obligation")
	assert.Contains(t, got.Advice, "Consult a local scholar")
	assert.Equal(t, fatwa.ConfidenceHigh, got.Confidence)
}

func TestParseIsOrderAndCaseInsensitive(t *testing.T) {
	raw := `advice: Ask your imam about the local practice in detail.
Explanation: The reasoning rests on the principle of necessity and its limits.
EVIDENCE: Quran 5:6 and related commentary
hukm: It is allowed when necessary.`

	got, err := answer.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "It is allowed when necessary.", got.Hukm)
	assert.Equal(t, []string{"Quran 5:6 and related commentary"}, got.Evidence)
	assert.Contains(t, got.Explanation, "principle of necessity")
	assert.Contains(t, got.Advice, "Ask your imam")
}

func TestParseMissingAdviceDegradesConfidence(t *testing.T) {
	raw := `HUKM: It is recommended in this situation.
EVIDENCE: Quran 73:20 among other passages
EXPLANATION: The texts encourage the act without making it obligatory for anyone.`

	got, err := answer.Parse(raw)
	require.NoError(t, err)

	assert.Empty(t, got.Advice)
	assert.Equal(t, fatwa.ConfidenceLow, got.Confidence)
}

func TestParseMissingEvidenceDegradesConfidence(t *testing.T) {
	raw := `HUKM: It is disliked but not forbidden here.
EXPLANATION: The jurists reason from analogy with the established base cases.
ADVICE: Avoid the act when a clear alternative exists for you.`

	got, err := answer.Parse(raw)
	require.NoError(t, err)

	assert.Empty(t, got.Evidence)
	assert.Equal(t, fatwa.ConfidenceLow, got.Confidence)
}

func TestParseMissingHukmFails(t *testing.T) {
	raw := `EVIDENCE: some citation
EXPLANATION: reasoning without any ruling given
ADVICE: ask someone qualified`

	_, err := answer.Parse(raw)
	var parseErr *answer.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Missing, "HUKM")
}

func TestParseMissingExplanationFails(t *testing.T) {
	raw := `HUKM: permissible
ADVICE: nothing further`

	_, err := answer.Parse(raw)
	var parseErr *answer.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Missing, "EXPLANATION")
}

func TestParseIsTotal(t *testing.T) {
	inputs := []string{
		"",
		"no labels at all in this text",
		"HUKM EVIDENCE EXPLANATION ADVICE",
		"HUKM:",
		"::::",
		"hukm: x\nexplanation:",
	}
	for _, raw := range inputs {
		got, err := answer.Parse(raw)
		if err != nil {
			var parseErr *answer.ParseError
			assert.ErrorAs(t, err, &parseErr, "input %q", raw)
			continue
		}
		assert.NotEmpty(t, got.Hukm, "input %q", raw)
		assert.NotEmpty(t, got.Explanation, "input %q", raw)
	}
}

func TestParseShortSectionsLowerConfidence(t *testing.T) {
	raw := `HUKM: allowed in all cases
EVIDENCE: Quran citation reference text here
EXPLANATION: ok
ADVICE: be careful about everything always`

	got, err := answer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, fatwa.ConfidenceLow, got.Confidence)
}
