package domain

// DateLayout is the date format used in similarity records.
const DateLayout = "2006-01-02"

// SimilarityRecord measures drift of one section between two consecutive filings.
// A is the later filing, B the earlier one.
type SimilarityRecord struct {
	FilerID    string  `json:"ticker"`
	Section    string  `json:"section,omitempty"`
	DateA      string  `json:"date_a"`
	DateB      string  `json:"date_b"`
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
	LenA       int     `json:"len_a"`
	LenB       int     `json:"len_b"`
	Sentiment  float64 `json:"sentiment"`
}

// ComparisonPair couples a later filing with its predecessor.
type ComparisonPair struct {
	Later   Filing
	Earlier Filing
	Section string
}
