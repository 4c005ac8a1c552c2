package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdylanwp/trendjack/internal/core/domain"
)

func TestCandidateFilterMatch(t *testing.T) {
	f := New()

	tests := []struct {
		name        string
		post        domain.RawPost
		wantMatch   bool
		wantReasons []string
	}{
		{
			name:        "question mark in title",
			post:        domain.RawPost{Title: "Is there a better invoicing tool?"},
			wantMatch:   true,
			wantReasons: []string{"contains_question"},
		},
		{
			name:        "question mark in body only",
			post:        domain.RawPost{Title: "Invoicing", Body: "What do you all use?"},
			wantMatch:   true,
			wantReasons: []string{"contains_question"},
		},
		{
			name:        "intent phrase case insensitive",
			post:        domain.RawPost{Title: "LOOKING FOR a new CRM"},
			wantMatch:   true,
			wantReasons: []string{"intent_phrases: looking for"},
		},
		{
			name:      "multiple intent phrases joined",
			post:      domain.RawPost{Body: "need help, struggling with my current setup"},
			wantMatch: true,
			wantReasons: []string{"intent_phrases: need help, struggling with"},
		},
		{
			name:        "help flair",
			post:        domain.RawPost{Title: "Invoices again", Flair: "Need Help"},
			wantMatch:   true,
			wantReasons: []string{"help_question_flair"},
		},
		{
			name:      "question and phrase and flair stack",
			post:      domain.RawPost{Title: "Any tips?", Flair: "Question"},
			wantMatch: true,
			wantReasons: []string{
				"contains_question",
				"intent_phrases: any tips",
				"help_question_flair",
			},
		},
		{
			name:      "no signal",
			post:      domain.RawPost{Title: "I shipped my project today", Body: "It went well."},
			wantMatch: false,
		},
		{
			name:      "unrelated flair",
			post:      domain.RawPost{Title: "Weekly thread", Flair: "Announcement"},
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reasons := f.Match(tt.post)

			assert.Equal(t, tt.wantMatch, ok)
			assert.Equal(t, tt.wantReasons, reasons)
		})
	}
}
