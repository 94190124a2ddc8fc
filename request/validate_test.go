package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/jonwraymond/modeflow/mode"
)

func validContext() WritingContext {
	return WritingContext{
		DocumentType:   "novel",
		WritingPhase:   "drafting",
		UserGoals:      []string{"pacing"},
		UserExperience: ExperienceIntermediate,
	}
}

func TestValidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{"valid", Request{Kind: KindCompletion, Content: "It was a dark night"}, true},
		{"unknown kind", Request{Kind: "poem", Content: "x"}, false},
		{"empty content", Request{Kind: KindRewrite, Content: "   "}, false},
		{"at limit", Request{Kind: KindAnalysis, Content: strings.Repeat("a", MaxContentLength)}, true},
		{"oversized", Request{Kind: KindAnalysis, Content: strings.Repeat("a", MaxContentLength+1)}, false},
		{"multibyte at limit", Request{Kind: KindAnalysis, Content: strings.Repeat("é", MaxContentLength)}, true},
		{"bad enhancement", Request{Kind: KindRewrite, Content: "x", EnhancementLevel: "maximal"}, false},
		{"good enhancement", Request{Kind: KindRewrite, Content: "x", EnhancementLevel: EnhancementLight}, true},
		{"invalid utf-8", Request{Kind: KindCompletion, Content: "draft \xff"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidRequest(tt.req); got != tt.want {
				t.Errorf("ValidRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidContext(t *testing.T) {
	if !ValidContext(validContext()) {
		t.Error("expected valid context")
	}

	missingPhase := validContext()
	missingPhase.WritingPhase = ""
	if ValidContext(missingPhase) {
		t.Error("context without writing phase should be invalid")
	}

	badExperience := validContext()
	badExperience.UserExperience = "wizard"
	if ValidContext(badExperience) {
		t.Error("context with unknown experience should be invalid")
	}

	badGoal := validContext()
	badGoal.UserGoals = []string{"pace \xfe"}
	if ValidContext(badGoal) {
		t.Error("context with invalid UTF-8 goal should be invalid")
	}

	noGoals := validContext()
	noGoals.UserGoals = nil
	if !ValidContext(noGoals) {
		t.Error("goals are optional")
	}
}

func TestValidate_TypedError(t *testing.T) {
	req := Request{Kind: KindCompletion, Content: "hello"}

	if err := Validate(req, validContext(), mode.Hybrid); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	err := Validate(req, validContext(), mode.Mode(7))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "mode" {
		t.Errorf("Field = %q, want mode", verr.Field)
	}

	err = Validate(Request{Kind: KindCompletion}, WritingContext{}, mode.Manual)
	if !errors.As(err, &verr) || verr.Field != "content" {
		t.Errorf("expected content violation first, got %v", err)
	}
}

func TestResponse_CloneDoesNotShare(t *testing.T) {
	orig := WithSuggestions(Metadata{Mode: mode.Hybrid}, "text", []Suggestion{{Type: "style", Text: "a"}}, true)
	cp := orig.Clone()
	cp.Suggestions[0].Text = "mutated"

	if orig.Suggestions[0].Text != "a" {
		t.Error("Clone shared the suggestions slice")
	}
}
