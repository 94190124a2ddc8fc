package request

import (
	"fmt"
	"strings"
)

// Kind identifies what the caller is asking the backend to do.
type Kind string

const (
	KindCompletion Kind = "completion"
	KindRewrite    Kind = "rewrite"
	KindAnalysis   Kind = "analysis"
	KindBrainstorm Kind = "brainstorm"
	KindCharacter  Kind = "character"
	KindDialogue   Kind = "dialogue"
)

var knownKinds = map[Kind]bool{
	KindCompletion: true,
	KindRewrite:    true,
	KindAnalysis:   true,
	KindBrainstorm: true,
	KindCharacter:  true,
	KindDialogue:   true,
}

// Known reports whether k is one of the supported kinds.
func (k Kind) Known() bool {
	return knownKinds[k]
}

// EnhancementLevel optionally overrides the level derived from the mode.
type EnhancementLevel string

const (
	EnhancementMinimal       EnhancementLevel = "minimal"
	EnhancementLight         EnhancementLevel = "light"
	EnhancementModerate      EnhancementLevel = "moderate"
	EnhancementComprehensive EnhancementLevel = "comprehensive"
)

var knownEnhancementLevels = map[EnhancementLevel]bool{
	EnhancementMinimal:       true,
	EnhancementLight:         true,
	EnhancementModerate:      true,
	EnhancementComprehensive: true,
}

// Request is a single unit of work submitted to the dispatcher.
// It is treated as immutable once submitted.
type Request struct {
	Kind                    Kind             `json:"kind"`
	Content                 string           `json:"content"`
	ExplicitlyUserInitiated bool             `json:"explicitlyUserInitiated"`
	EnhancementLevel        EnhancementLevel `json:"enhancementLevel,omitempty"`
	ApprovalRequired        *bool            `json:"approvalRequired,omitempty"`
}

// Experience is the writer's self-reported experience level.
type Experience string

const (
	ExperienceBeginner     Experience = "beginner"
	ExperienceIntermediate Experience = "intermediate"
	ExperienceAdvanced     Experience = "advanced"
	ExperienceProfessional Experience = "professional"
)

// ParseExperience parses an experience level, case-insensitively.
func ParseExperience(s string) (Experience, error) {
	e := Experience(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced, ExperienceProfessional:
		return e, nil
	default:
		return "", fmt.Errorf("request: unknown experience level %q", s)
	}
}

// WritingContext describes the document a request belongs to. Only a hash
// of it is retained by the dispatcher.
type WritingContext struct {
	DocumentType   string     `json:"documentType"`
	WritingPhase   string     `json:"writingPhase"`
	UserGoals      []string   `json:"userGoals,omitempty"`
	UserExperience Experience `json:"userExperience"`
}
