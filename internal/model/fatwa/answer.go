package fatwa

// Confidence grades how complete a structured answer is.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// StructuredAnswer is the four-part answer extracted from raw model
// output. Only the answer parser constructs these; fields are never
// backfilled with placeholder text.
type StructuredAnswer struct {
	Hukm        string     `json:"hukm"`
	Evidence    []string   `json:"evidence"`
	Explanation string     `json:"explanation"`
	Advice      string     `json:"advice"`
	Confidence  Confidence `json:"confidence"`
}
