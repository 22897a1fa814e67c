package fake

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/slok/legalflow/internal/model"
)

// clauseKeywords are the clauses the compliance audit looks for.
var clauseKeywords = map[string][]string{
	"confidentiality": {"confidential", "non-disclosure"},
	"termination":     {"terminate", "termination"},
	"governing_law":   {"governing law", "laws of"},
	"liability":       {"liability", "indemnif"},
	"parties":         {"between", "party", "parties"},
	"compensation":    {"salary", "compensation", "payment", "fee"},
}

// Finding is a single clause check of an audit.
type Finding struct {
	Clause   string `json:"clause"`
	Present  bool   `json:"present"`
	Severity string `json:"severity"`
}

// AuditReport is the result of an audit job.
type AuditReport struct {
	Score     int       `json:"score"`
	WordCount int       `json:"wordCount"`
	Findings  []Finding `json:"findings"`
}

// ResearchFindings is the result of a research job.
type ResearchFindings struct {
	Topics  []string `json:"topics"`
	Summary string   `json:"summary"`
}

// DraftAnalysis is the result of a draft analysis job.
type DraftAnalysis struct {
	WordCount   int      `json:"wordCount"`
	Sentences   int      `json:"sentences"`
	Suggestions []string `json:"suggestions"`
}

// DefaultAnalyzer is a deterministic keyword based analyzer.
func DefaultAnalyzer(kind model.JobKind, text string, _ map[string]any) (any, error) {
	lower := strings.ToLower(text)
	words := len(strings.Fields(text))

	switch kind {
	case model.JobKindAudit:
		clauses := sortedClauses()
		report := AuditReport{WordCount: words, Findings: make([]Finding, 0, len(clauses))}
		present := 0
		for _, clause := range clauses {
			found := containsAny(lower, clauseKeywords[clause])
			severity := "ok"
			if !found {
				severity = "warning"
			}
			if found {
				present++
			}
			report.Findings = append(report.Findings, Finding{Clause: clause, Present: found, Severity: severity})
		}
		report.Score = present * 100 / len(clauses)
		return report, nil

	case model.JobKindResearch:
		var topics []string
		for _, clause := range sortedClauses() {
			if containsAny(lower, clauseKeywords[clause]) {
				topics = append(topics, clause)
			}
		}
		return ResearchFindings{
			Topics:  topics,
			Summary: fmt.Sprintf("%d relevant topics found in %d words", len(topics), words),
		}, nil

	case model.JobKindDraft:
		sentences := strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '!' || r == '?' })
		count := 0
		var suggestions []string
		for _, s := range sentences {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			count++
			if len(strings.Fields(s)) > 40 {
				suggestions = append(suggestions, fmt.Sprintf("sentence %d is too long", count))
			}
			if first := []rune(s)[0]; unicode.IsLower(first) {
				suggestions = append(suggestions, fmt.Sprintf("sentence %d should start with an uppercase letter", count))
			}
		}
		return DraftAnalysis{WordCount: words, Sentences: count, Suggestions: suggestions}, nil
	}

	return nil, fmt.Errorf("unsupported job kind %q", kind)
}

func sortedClauses() []string {
	clauses := make([]string, 0, len(clauseKeywords))
	for c := range clauseKeywords {
		clauses = append(clauses, c)
	}
	sort.Strings(clauses)
	return clauses
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
