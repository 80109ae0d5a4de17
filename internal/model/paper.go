package model

// Paper is one academic-paper record flowing through the pipeline.
// Papers are read once at stage start and never mutated; identity is
// the paper's position in the input list.
type Paper struct {
	Title       string   `json:"title"`
	Abstract    string   `json:"abstract"`
	URL         string   `json:"url"`
	Year        int      `json:"year"`
	Venue       string   `json:"venue"`
	KeywordHits []string `json:"keyword_hits,omitempty"`
}

// Screening decisions returned by the relevance stage.
const (
	DecisionInclude = "include"
	DecisionExclude = "exclude"
)

// CategoryOverflow is the designated value for papers that fit none of
// the registered categories. Records carrying it must supply a
// recommended label and a short summary.
const CategoryOverflow = "new category"

// Categories is the fixed registry for the categorization stage, in
// report order.
var Categories = []string{
	"code generation",
	"code translation",
	"program repair",
	"code understanding",
	"code optimization",
	"test generation",
	"code completion",
	"code recommendation",
	"requirements to code",
	"fault localization",
	"commit message generation",
	"code question answering",
	"counterexample generation",
	"data science tasks",
	"error identification",
	"code search",
}

// IsKnownCategory reports whether cat is in the registry (the overflow
// value is not a registered category).
func IsKnownCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Record is the validated classification result for one paper.
// Exactly one of Decision or Category is set, depending on the stage.
type Record struct {
	Index            int     `json:"index"`
	Decision         string  `json:"decision,omitempty"`
	Category         string  `json:"category,omitempty"`
	Confidence       float64 `json:"confidence"`
	Reason           string  `json:"reason,omitempty"`
	Rationale        string  `json:"rationale,omitempty"`
	RecommendedLabel string  `json:"recommended_label,omitempty"`
	Summary          string  `json:"summary,omitempty"`
}

// Outcome pairs a paper with its validated record. The paper fields are
// inlined so output artifacts stay flat and human-diffable.
type Outcome struct {
	Paper
	Decision         string  `json:"decision,omitempty"`
	Category         string  `json:"category,omitempty"`
	Confidence       float64 `json:"confidence"`
	Reason           string  `json:"reason,omitempty"`
	Rationale        string  `json:"rationale,omitempty"`
	RecommendedLabel string  `json:"recommended_label,omitempty"`
	Summary          string  `json:"summary,omitempty"`
}

// NewOutcome flattens a paper and its record into an output row.
func NewOutcome(p Paper, r Record) Outcome {
	return Outcome{
		Paper:            p,
		Decision:         r.Decision,
		Category:         r.Category,
		Confidence:       r.Confidence,
		Reason:           r.Reason,
		Rationale:        r.Rationale,
		RecommendedLabel: r.RecommendedLabel,
		Summary:          r.Summary,
	}
}

// Bucket names used by the two stages.
const (
	BucketIncluded    = "included"
	BucketExcluded    = "excluded"
	BucketCategorized = "categorized"
)
