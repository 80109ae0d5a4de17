// Package keywords implements the cheap lexical pre-filter that runs
// before any model call: papers are split into coding-related AI work,
// other AI work, and non-AI work purely on term matches over title and
// abstract. Matched terms are recorded on the paper for provenance.
package keywords

import (
	"context"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/paperlit/screener-cli/internal/model"
)

// aiTerms signal that a paper involves language models, agents, or the
// surrounding training and inference machinery.
var aiTerms = []string{
	"large language model", "language model", "llm", "plm",
	"foundation model", "pretrained model", "pre-trained model",
	"transformer", "self-attention", "decoder-only", "encoder-decoder",
	"autoregressive", "generative model", "inference",
	"fine-tuning", "finetuning", "instruction tuning", "prompt", "prompting",
	"prompt tuning", "rlhf", "dpo", "sft", "alignment",
	"tool use", "tool-use", "tool calling", "function calling",
	"retrieval-augmented generation", "rag",
	"agent", "multi-agent", "autonomous agent", "agentic workflow",
	"few-shot", "zero-shot", "in-context learning", "icl",
	"distillation", "quantization", "kv cache", "speculative decoding",
	"mixture of experts", "moe",
	"gpt-4", "gpt4", "gpt-3.5", "gpt-3", "codex",
	"gemini", "palm", "claude",
	"llama", "llama 2", "llama 3", "llama-3", "mistral", "mixtral",
	"phi", "orion",
	"qwen", "glm", "chatglm", "deepseek", "baichuan", "yuan",
	"code llama", "code-llama", "starcoder", "santacoder", "wizardcoder",
	"replit", "incoder", "codet5", "codegeex", "starchat",
	"deepseek-coder", "qwen-coder", "qwen2.5-coder", "octocoder",
}

// codingAnchors are general programming and software-ecosystem terms.
var codingAnchors = []string{
	"source code", "codebase", "program", "software", "repository",
	"developer", "ide", "editor", "compiler", "debugger", "build system",
	"api", "sdk", "function", "method", "class", "module", "package",
	"dependency", "import", "namespace",
	"unit test", "test case", "coverage", "test suite", "assertion",
	"static analysis", "dynamic analysis", "symbolic execution",
	"fuzzing", "taint", "control flow", "data flow", "call graph", "points-to",
	"ast", "ir", "bytecode", "llvm", "wasm", "cfg", "dfg",
	"git", "github", "gitlab", "commit", "pull request", "merge request",
	"issue tracker", "ci/cd", "continuous integration", "continuous delivery",
	"repository mining", "program analysis", "software engineering",
	"build pipeline", "monorepo", "diff", "patch",
}

// codeTaskSignals are phrasings of the concrete code tasks the corpus
// covers. They only mark a paper as coding-related; fine-grained
// categorization is the model's job.
var codeTaskSignals = []string{
	"code generation", "generate code", "program synthesis", "nl2code", "nl to code", "text-to-code",
	"code translation", "transpilation", "transpiler", "cross-language translation",
	"source-to-source translation", "transcompiler",
	"code repair", "program repair", "automated program repair", "apr",
	"patch generation", "bug fix generation", "fix suggestion",
	"code understanding", "code comprehension", "code summarization", "explain code",
	"intent inference", "behavior summarization",
	"code optimization", "performance optimization", "speedup", "latency reduction",
	"resource optimization", "memory optimization", "refactor for performance",
	"test generation", "unit test generation", "test case generation", "test synthesis",
	"assertion generation", "property-based testing",
	"code completion", "auto-completion", "autocomplete", "fill-in-the-middle", "fim",
	"project-aware completion", "repo-aware completion", "ide completion",
	"code recommendation", "coding recommendation", "lint suggestion",
	"style suggestion", "refactoring suggestion", "best practice suggestion",
	"requirement to code", "spec to code", "natural language requirement to design",
	"task decomposition for coding", "api design from requirements",
	"fault localization", "bug localization", "defect localization", "sbfl",
	"spectrum-based fault localization", "localize bug",
	"commit message generation", "commit message suggestion", "changelog generation",
	"code question answering", "programming qa", "api question answering",
	"stack overflow style qa", "debugging qa",
	"counterexample generation", "poc workflow", "proof-of-concept workflow",
	"bug reproduction steps", "reproduction steps", "adversarial example for code",
	"notebook automation", "data wrangling", "data cleaning", "feature engineering",
	"pandas script", "numpy script", "plot generation", "sql query generation",
	"bug detection", "fault detection", "error identification", "defect detection",
	"linting", "bug classifier", "static bug finder", "security smell detection",
	"code search", "semantic code search", "code retrieval", "function search", "api search",
}

// codeModelNames double as coding signals on top of their AI signal.
var codeModelNames = []string{
	"code llama", "code-llama", "starcoder", "santacoder", "wizardcoder",
	"replit", "incoder", "codet5", "codegeex", "starchat",
	"deepseek-coder", "qwen-coder", "qwen2.5-coder", "octocoder",
}

var (
	aiMatcher     = newMatcher(aiTerms)
	codingMatcher = newMatcher(append(append(append([]string{}, codingAnchors...), codeTaskSignals...), codeModelNames...))

	dashVariants = strings.NewReplacer("–", "-", "—", "-")
	whitespace   = regexp.MustCompile(`\s+`)
	separators   = regexp.MustCompile(`[\s\-_]+`)
)

// matcher holds compiled word-boundary patterns for a term list.
// Multi-word terms match with any run of spaces, hyphens, or
// underscores between the words.
type matcher struct {
	patterns []*regexp.Regexp
}

func newMatcher(terms []string) *matcher {
	seen := make(map[string]struct{}, len(terms))
	uniq := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		uniq = append(uniq, t)
	}
	sort.Strings(uniq)

	m := &matcher{patterns: make([]*regexp.Regexp, 0, len(uniq))}
	for _, t := range uniq {
		parts := separators.Split(t, -1)
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		core := strings.Join(parts, "[-_ ]+")
		m.patterns = append(m.patterns, regexp.MustCompile(`\b`+core+`\b`))
	}
	return m
}

// hits returns the sorted, deduplicated matched substrings.
func (m *matcher) hits(text string) []string {
	seen := make(map[string]struct{})
	for _, p := range m.patterns {
		if loc := p.FindString(text); loc != "" {
			seen[loc] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// normalize lowers the searchable text and canonicalizes dashes and
// whitespace runs so term variants line up.
func normalize(p model.Paper) string {
	t := p.Title + " " + p.Abstract
	t = strings.ToLower(dashVariants.Replace(t))
	t = whitespace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Buckets is the three-way split produced by the pre-filter, preserving
// input order within each bucket.
type Buckets struct {
	// Coding holds AI papers that also carry a coding signal; these go
	// on to model screening.
	Coding []model.Paper
	// AIOther holds AI papers with no coding signal.
	AIOther []model.Paper
	// NonAI holds everything else.
	NonAI []model.Paper
}

type verdict struct {
	coding bool
	ai     bool
	hits   []string
}

// Classify splits the papers lexically, fanning the regex scans out
// over workers goroutines (defaults to GOMAXPROCS when workers <= 0).
// The only error source is context cancellation.
func Classify(ctx context.Context, papers []model.Paper, workers int) (Buckets, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	verdicts := make([]verdict, len(papers))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range papers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text := normalize(papers[i])
			aiHits := aiMatcher.hits(text)
			if len(aiHits) == 0 {
				verdicts[i] = verdict{}
				return nil
			}
			codingHits := codingMatcher.hits(text)
			verdicts[i] = verdict{
				ai:     true,
				coding: len(codingHits) > 0,
				hits:   mergeHits(aiHits, codingHits),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Buckets{}, err
	}

	var out Buckets
	for i, p := range papers {
		v := verdicts[i]
		p.KeywordHits = v.hits
		switch {
		case v.coding:
			out.Coding = append(out.Coding, p)
		case v.ai:
			out.AIOther = append(out.AIOther, p)
		default:
			out.NonAI = append(out.NonAI, p)
		}
	}
	return out, nil
}

func mergeHits(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
