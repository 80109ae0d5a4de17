package pipeline

import (
	"fmt"
	"strings"

	"github.com/paperlit/screener-cli/internal/model"
)

// Stage parameterizes the driver for one classification pass: prompts,
// sampling temperature, the bucket set, and how raw reply records are
// normalized and routed. The screening and categorization stages are
// two instances of the same machinery.
type Stage struct {
	Name         string
	SystemPrompt string
	// UserTemplate embeds the batch payload at the %s verb.
	UserTemplate string
	Temperature  float64
	MaxTokens    int64

	// Buckets lists the terminal output buckets in a fixed order;
	// DefaultBucket receives papers for which no reply record arrived.
	Buckets       []string
	DefaultBucket string

	// Normalize validates the stage-specific fields of one raw record.
	// Index and confidence are handled generically by the reconciler.
	Normalize func(raw map[string]any) model.Record

	// Route maps a validated record to one bucket name.
	Route func(rec model.Record) string

	// Unmatched produces the record assigned to a paper that no reply
	// record covered. Such papers go to DefaultBucket, never dropped.
	Unmatched func() model.Record
}

// RenderUserPrompt embeds the payload JSON into the stage's user template.
func (s Stage) RenderUserPrompt(payloadJSON string) string {
	return fmt.Sprintf(s.UserTemplate, payloadJSON)
}

const unmatchedReason = "no classification record returned"

const screenSystemPrompt = `You are an expert academic reviewer who decides whether a paper belongs to the "LLM for coding" research area.

The area covers applying large language models to software development and programming tasks: improving, automating, or augmenting programming-related work through the models' language understanding and code generation abilities.

Typical signals a paper BELONGS to the area:
1. Its core subject is code, programs, software development workflows, or programming tasks.
2. Its core technique is a large language model (GPT family, LLaMA, Claude, and similar).
3. Its core goal is solving programming, software engineering, or code-related problems.

Included scenarios (non-exhaustive): code generation, completion, translation, repair, and optimization; code understanding, summarization, explanation, and documentation; test case generation, quality analysis, and bug detection or fixing; programming assistants, IDE augmentation, and developer productivity; code search, API understanding, and technical documentation; software process automation, requirements analysis, and design generation; programming education and technical question answering.

Typical signals a paper does NOT belong:
1. Pure model research: architectures, training methods, theory.
2. General AI applications: dialogue, text generation, multimodal understanding.
3. Non-programming tasks: vision, speech, recommendation.
4. Traditional software engineering without LLMs.
5. AI safety or privacy work not aimed at programming tasks.

For each paper return "include" if it belongs, otherwise "exclude" with a short reason (at most 20 words).

Reply STRICTLY as a JSON array where each element is:
{
"index": <integer, the input index>,
"decision": <"include" or "exclude">,
"reason": <short reason when excluding, otherwise an empty string>,
"confidence": <float between 0 and 1>
}`

const screenUserTemplate = `Screen the following papers for "LLM for coding" relevance. Each entry carries only the essential fields; abstracts may be truncated.

For every paper consider:
1. Does it use a large language model as its core technique?
2. Is it applied directly to programming or software development?
3. Does it have a concrete programming use case?

Return ONLY the JSON array, with no other text.

papers:
%s`

// ScreenStage is the binary relevance pass: every paper lands in
// exactly one of the included/excluded buckets.
func ScreenStage() Stage {
	return Stage{
		Name:          "screen",
		SystemPrompt:  screenSystemPrompt,
		UserTemplate:  screenUserTemplate,
		Temperature:   0.1,
		MaxTokens:     4096,
		Buckets:       []string{model.BucketIncluded, model.BucketExcluded},
		DefaultBucket: model.BucketExcluded,
		Normalize: func(raw map[string]any) model.Record {
			decision := strings.ToLower(strings.TrimSpace(stringField(raw, "decision")))
			if decision != model.DecisionInclude {
				// Anything unrecognized is treated as an exclusion.
				decision = model.DecisionExclude
			}
			return model.Record{
				Decision: decision,
				Reason:   stringField(raw, "reason"),
			}
		},
		Route: func(rec model.Record) string {
			if rec.Decision == model.DecisionInclude {
				return model.BucketIncluded
			}
			return model.BucketExcluded
		},
		Unmatched: func() model.Record {
			return model.Record{
				Decision: model.DecisionExclude,
				Reason:   unmatchedReason,
			}
		},
	}
}

// categoryHints pairs each registered category with a one-line definition
// used in the categorization system prompt.
var categoryHints = map[string]string{
	"code generation":           "producing executable code or scaffolding directly from natural language or specifications",
	"code translation":          "converting code between languages, frameworks, or versions",
	"program repair":            "automatically generating patches or fix suggestions",
	"code understanding":        "explaining or summarizing code intent, behavior, and semantics",
	"code optimization":         "improving performance, resource usage, or readability",
	"test generation":           "generating unit or integration tests and assertions",
	"code completion":           "context-aware completion or fill-in-the-middle in editors",
	"code recommendation":       "style, security, or refactoring suggestions without directly changing code",
	"requirements to code":      "turning requirements or specifications into designs, interfaces, or task breakdowns",
	"fault localization":        "pinpointing the location or scope of faults and defects",
	"commit message generation": "generating commit messages or change descriptions from diffs",
	"code question answering":   "answering questions about code, libraries, or APIs",
	"counterexample generation": "reproducing issues, building PoCs, or generating adversarial examples",
	"data science tasks":        "code-centric data cleaning, feature engineering, modeling, or visualization",
	"error identification":      "detecting or classifying the presence and kind of errors",
	"code search":               "retrieving functions, APIs, or snippets semantically or by keyword",
}

func categorizeSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are a rigorous paper classifier for the \"LLM for coding\" area.\n")
	sb.WriteString("Assign each paper to exactly one of the following categories; if none fits, use \"")
	sb.WriteString(model.CategoryOverflow)
	sb.WriteString("\" and supply a recommended category name and a short summary:\n")
	for _, cat := range model.Categories {
		sb.WriteString("- ")
		sb.WriteString(cat)
		sb.WriteString(": ")
		sb.WriteString(categoryHints[cat])
		sb.WriteString("\n")
	}
	sb.WriteString("\nReply STRICTLY as a JSON array (no extra text, no Markdown) where each element is:\n")
	sb.WriteString(`{"index": <integer, the input index>, `)
	sb.WriteString(`"category": <one of the categories above or "` + model.CategoryOverflow + `">, `)
	sb.WriteString(`"recommended_label": <string, required for "` + model.CategoryOverflow + `", otherwise empty>, `)
	sb.WriteString(`"summary": <string, a 20-40 word summary of the work for "` + model.CategoryOverflow + `", otherwise empty>, `)
	sb.WriteString(`"confidence": <float between 0 and 1>, `)
	sb.WriteString(`"rationale": <reason in at most 30 words>}` + "\n")
	sb.WriteString("Return ONLY the JSON array itself.")
	return sb.String()
}

const categorizeUserTemplate = `Classify the following papers. Each entry carries only the essential fields; abstracts are truncated to save tokens.
Return ONLY the JSON array as instructed, with no other text.

papers:
%s`

// CategorizeStage is the multi-way pass: one flat bucket of outcomes
// annotated with a category, with unknown categories coerced to the
// overflow value.
func CategorizeStage() Stage {
	return Stage{
		Name:          "categorize",
		SystemPrompt:  categorizeSystemPrompt(),
		UserTemplate:  categorizeUserTemplate,
		Temperature:   0.2,
		MaxTokens:     4096,
		Buckets:       []string{model.BucketCategorized},
		DefaultBucket: model.BucketCategorized,
		Normalize: func(raw map[string]any) model.Record {
			category := strings.TrimSpace(stringField(raw, "category"))
			if category != model.CategoryOverflow && !model.IsKnownCategory(category) {
				category = model.CategoryOverflow
			}

			rec := model.Record{
				Category:  category,
				Rationale: stringField(raw, "rationale"),
			}
			// The recommendation fields are meaningful only for papers
			// that overflowed the registry.
			if category == model.CategoryOverflow {
				rec.RecommendedLabel = stringField(raw, "recommended_label")
				rec.Summary = stringField(raw, "summary")
			}
			return rec
		},
		Route: func(model.Record) string {
			return model.BucketCategorized
		},
		Unmatched: func() model.Record {
			return model.Record{
				Category:  model.CategoryOverflow,
				Rationale: unmatchedReason,
			}
		},
	}
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}
