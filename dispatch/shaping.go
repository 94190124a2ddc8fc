package dispatch

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/request"
)

const maxSuggestions = 3

var phaseAdvice = map[string]string{
	"planning":  "Sketch the outline before committing to sentences",
	"outlining": "Sketch the outline before committing to sentences",
	"drafting":  "Keep momentum: draft now and revise later",
	"revising":  "Look for paragraphs that repeat an idea",
	"editing":   "Tighten sentences that carry filler words",
	"polishing": "Read the passage aloud to catch awkward rhythm",
}

var kindAdvice = map[request.Kind]string{
	request.KindCompletion: "Check that the continuation keeps the established tense",
	request.KindRewrite:    "Compare the rewrite against the original for lost meaning",
	request.KindAnalysis:   "Pick one finding to act on first",
	request.KindBrainstorm: "Combine two ideas that seem unrelated",
	request.KindCharacter:  "Give the character a want that conflicts with a need",
	request.KindDialogue:   "Cut greetings and small talk that do not move the scene",
}

// contextualSuggestions derives suggestions from the writing context alone.
// They never depend on the backend answer.
func contextualSuggestions(req request.Request, wctx request.WritingContext, aug mode.Augmentation) []request.Suggestion {
	out := make([]request.Suggestion, 0, maxSuggestions)

	if advice, ok := phaseAdvice[strings.ToLower(wctx.WritingPhase)]; ok {
		out = append(out, request.Suggestion{Type: "phase", Text: advice, Confidence: 0.8})
	}
	if len(wctx.UserGoals) > 0 {
		out = append(out, request.Suggestion{
			Type:       "goal",
			Text:       fmt.Sprintf("Check this passage against your goal: %s", wctx.UserGoals[0]),
			Confidence: 0.7,
		})
	}
	if advice, ok := kindAdvice[req.Kind]; ok {
		out = append(out, request.Suggestion{Type: aug.SuggestionStyle, Text: advice, Confidence: 0.6})
	}
	if wctx.UserExperience == request.ExperienceBeginner && len(out) < maxSuggestions {
		out = append(out, request.Suggestion{Type: "craft", Text: "Prefer concrete nouns over adjectives", Confidence: 0.5})
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

var kindEnhancement = map[request.Kind]request.Enhancement{
	request.KindCompletion: {Type: "continuity", Description: "Aligned the continuation with earlier plot points"},
	request.KindRewrite:    {Type: "clarity", Description: "Simplified sentence structure"},
	request.KindAnalysis:   {Type: "structure", Description: "Grouped findings by severity"},
	request.KindBrainstorm: {Type: "variety", Description: "Widened the range of ideas"},
	request.KindCharacter:  {Type: "consistency", Description: "Checked traits against the character profile"},
	request.KindDialogue:   {Type: "voice", Description: "Differentiated speaker voices"},
}

// proactiveEnhancements lists the changes applied on the writer's behalf.
// Enhancements are applied only when the mode enables auto enhancement.
func proactiveEnhancements(req request.Request, wctx request.WritingContext, cfg mode.Configuration, aug mode.Augmentation) []request.Enhancement {
	out := []request.Enhancement{{
		Type:        "style",
		Description: fmt.Sprintf("Matched tone to the %s in a %s register", wctx.DocumentType, aug.CreativityLevel),
	}}
	if e, ok := kindEnhancement[req.Kind]; ok {
		out = append(out, e)
	}
	if aug.EnhancementLevel == string(request.EnhancementComprehensive) {
		out = append(out, request.Enhancement{Type: "polish", Description: "Smoothed transitions between paragraphs"})
	}
	for i := range out {
		out[i].Applied = cfg.AutoEnhancement
	}
	return out
}

// augment derives the request shaping for m. An explicit enhancement level
// on the request overrides the derived one.
func augment(req request.Request, cfg mode.Configuration) mode.Augmentation {
	aug := cfg.Augment()
	if req.EnhancementLevel != "" {
		aug.EnhancementLevel = string(req.EnhancementLevel)
	}
	return aug
}

// requiresApproval reports whether m holds responses for user approval.
// Manual and Hybrid always do. FullyAuto never does, whatever the request
// asked for.
func requiresApproval(m mode.Mode) bool {
	return m != mode.FullyAuto
}
