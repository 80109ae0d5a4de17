// Package stats summarizes final categorization output: per-category
// counts in registry order, overflow label tallies, and per-category
// paper listings rendered as terminal tables.
package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/paperlit/screener-cli/internal/model"
)

// placeholderLabel stands in for an overflow paper that carried no
// recommended label.
const placeholderLabel = "—"

// CategoryCount is one row of the distribution.
type CategoryCount struct {
	Category string
	Count    int
}

// LabelCount tallies one recommended label among overflow papers.
type LabelCount struct {
	Label string
	Count int
}

// Summary is the computed view over one categorized output file.
type Summary struct {
	Total int

	// Distribution lists every registered category in registry order,
	// including zero-count ones, with the overflow row appended last.
	Distribution []CategoryCount

	// OverflowLabels are the recommended labels of overflow papers,
	// most frequent first, ties broken alphabetically.
	OverflowLabels []LabelCount

	// Top holds the up-to-three largest categories by count.
	Top []CategoryCount

	// NonEmpty is the number of categories (overflow included) with at
	// least one paper.
	NonEmpty int

	// ByCategory groups the outcomes, registry order preserved via
	// Distribution. Papers with an empty or unregistered category are
	// grouped under the overflow key.
	ByCategory map[string][]model.Outcome
}

// Summarize computes the distribution. Outcomes with a blank or
// unregistered category count as overflow, mirroring how the
// categorization stage itself coerces them.
func Summarize(outcomes []model.Outcome) Summary {
	counts := make(map[string]int)
	labels := make(map[string]int)
	byCategory := make(map[string][]model.Outcome)

	for _, out := range outcomes {
		cat := strings.TrimSpace(out.Category)
		if cat == "" || (cat != model.CategoryOverflow && !model.IsKnownCategory(cat)) {
			cat = model.CategoryOverflow
		}
		if cat == model.CategoryOverflow {
			label := strings.TrimSpace(out.RecommendedLabel)
			if label == "" {
				label = placeholderLabel
			}
			labels[label]++
		}
		counts[cat]++
		byCategory[cat] = append(byCategory[cat], out)
	}

	s := Summary{
		Total:      len(outcomes),
		ByCategory: byCategory,
	}

	for _, cat := range model.Categories {
		s.Distribution = append(s.Distribution, CategoryCount{Category: cat, Count: counts[cat]})
	}
	s.Distribution = append(s.Distribution, CategoryCount{
		Category: model.CategoryOverflow,
		Count:    counts[model.CategoryOverflow],
	})

	for _, row := range s.Distribution {
		if row.Count > 0 {
			s.NonEmpty++
		}
	}

	for label, n := range labels {
		s.OverflowLabels = append(s.OverflowLabels, LabelCount{Label: label, Count: n})
	}
	sort.Slice(s.OverflowLabels, func(i, j int) bool {
		if s.OverflowLabels[i].Count != s.OverflowLabels[j].Count {
			return s.OverflowLabels[i].Count > s.OverflowLabels[j].Count
		}
		return s.OverflowLabels[i].Label < s.OverflowLabels[j].Label
	})

	top := make([]CategoryCount, len(s.Distribution))
	copy(top, s.Distribution)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	for _, row := range top {
		if len(s.Top) == 3 || row.Count == 0 {
			break
		}
		s.Top = append(s.Top, row)
	}

	return s
}

// Render writes the summary as terminal tables. withTitles adds the
// per-category paper listings, which can run long.
func Render(w io.Writer, s Summary, withTitles bool) {
	renderDistribution(w, s)
	renderOverflow(w, s)
	renderTopline(w, s)
	if withTitles {
		renderTitles(w, s)
	}
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	return tbl
}

func renderDistribution(w io.Writer, s Summary) {
	fmt.Fprintln(w, "Category distribution")
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Category", "Papers", "Share"})
	for _, row := range s.Distribution {
		tbl.AppendRow(table.Row{row.Category, row.Count, share(row.Count, s.Total)})
	}
	tbl.AppendFooter(table.Row{"total", s.Total, ""})
	tbl.Render()
	fmt.Fprintln(w)
}

func renderOverflow(w io.Writer, s Summary) {
	if len(s.OverflowLabels) == 0 {
		return
	}
	fmt.Fprintln(w, "Overflow recommendations")
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Recommended label", "Papers"})
	for _, row := range s.OverflowLabels {
		tbl.AppendRow(table.Row{row.Label, row.Count})
	}
	tbl.Render()
	fmt.Fprintln(w)
}

func renderTopline(w io.Writer, s Summary) {
	fmt.Fprintf(w, "Papers: %d\n", s.Total)
	fmt.Fprintf(w, "Non-empty categories: %d / %d\n", s.NonEmpty, len(s.Distribution))
	for i, row := range s.Top {
		fmt.Fprintf(w, "Top %d: %s (%d, %s)\n", i+1, row.Category, row.Count, share(row.Count, s.Total))
	}
	fmt.Fprintln(w)
}

func renderTitles(w io.Writer, s Summary) {
	for _, row := range s.Distribution {
		papers := s.ByCategory[row.Category]
		if len(papers) == 0 {
			continue
		}

		fmt.Fprintf(w, "%s (%d)\n", row.Category, len(papers))
		tbl := newTable(w)
		tbl.AppendHeader(table.Row{"#", "Year", "Venue", "Conf.", "Title"})
		for i, p := range papers {
			tbl.AppendRow(table.Row{i + 1, p.Year, p.Venue, fmt.Sprintf("%.2f", p.Confidence), p.Title})
			if row.Category == model.CategoryOverflow && p.RecommendedLabel != "" {
				tbl.AppendRow(table.Row{"", "", "", "", "-> " + p.RecommendedLabel})
				if p.Summary != "" {
					tbl.AppendRow(table.Row{"", "", "", "", "   " + p.Summary})
				}
			}
		}
		tbl.Render()
		fmt.Fprintln(w)
	}
}

func share(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}
