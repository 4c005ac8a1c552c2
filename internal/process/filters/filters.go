// Package filters decides which community posts are worth spending an
// AI call on. Matching is cheap string work; anything ambiguous is left
// to the scorer downstream.
package filters

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

// intentPhrases are literal substrings that signal a request for help or
// a purchase decision in progress.
var intentPhrases = []string{
	"looking for",
	"recommend",
	"anyone used",
	"suggestions",
	"advice",
	"help me",
	"what should",
	"how do i",
	"best way",
	"need help",
	"any tips",
	"struggling with",
}

// helpFlairs are flair fragments that communities use to tag
// help-seeking posts.
var helpFlairs = []string{"help", "question", "advice"}

// CandidateFilter selects posts showing buying or help-seeking intent.
type CandidateFilter struct {
	folder cases.Caser
}

// New creates a filter with Unicode case folding for matching.
func New() *CandidateFilter {
	return &CandidateFilter{folder: cases.Fold()}
}

// Match reports whether the post qualifies as a candidate and returns
// the reasons it matched. A post qualifies when any signal fires; all
// fired signals are recorded so the grading step can weigh them.
func (f *CandidateFilter) Match(post domain.RawPost) (bool, []string) {
	title := f.folder.String(post.Title)
	body := f.folder.String(post.Body)
	text := title + " " + body

	var reasons []string

	if strings.Contains(post.Title, "?") || strings.Contains(post.Body, "?") {
		reasons = append(reasons, "contains_question")
	}

	if phrases := matchPhrases(text); len(phrases) > 0 {
		reasons = append(reasons, "intent_phrases: "+strings.Join(phrases, ", "))
	}

	if f.hasHelpFlair(post.Flair) {
		reasons = append(reasons, "help_question_flair")
	}

	return len(reasons) > 0, reasons
}

func matchPhrases(text string) []string {
	var matched []string

	for _, phrase := range intentPhrases {
		if strings.Contains(text, phrase) {
			matched = append(matched, phrase)
		}
	}

	return matched
}

func (f *CandidateFilter) hasHelpFlair(flair string) bool {
	if flair == "" {
		return false
	}

	folded := f.folder.String(flair)

	for _, fragment := range helpFlairs {
		if strings.Contains(folded, fragment) {
			return true
		}
	}

	return false
}
