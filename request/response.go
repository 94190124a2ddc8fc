package request

import (
	"slices"
	"time"

	"github.com/jonwraymond/modeflow/mode"
)

// ResponseType tags the variant carried by a Response.
type ResponseType string

const (
	// TypeSilent is returned when the mode forbids acting; it carries no content.
	TypeSilent ResponseType = "silent"
	// TypeContent is a direct answer that requires approval.
	TypeContent ResponseType = "content"
	// TypeSuggestion is an answer plus contextual suggestions.
	TypeSuggestion ResponseType = "suggestion"
	// TypeEnhancement is an answer plus proactive enhancements.
	TypeEnhancement ResponseType = "enhancement"
)

// Metadata is carried by every response variant.
type Metadata struct {
	Mode              mode.Mode              `json:"mode"`
	InitiativeLevel   mode.InitiativeLevel   `json:"initiativeLevel"`
	UserControlLevel  int                    `json:"userControlLevel"`
	InterventionStyle mode.InterventionStyle `json:"interventionStyle"`
}

// Suggestion is an optional hint attached to Hybrid responses.
type Suggestion struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Enhancement is a proactive change attached to FullyAuto responses.
type Enhancement struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Applied     bool   `json:"applied"`
}

// Response is a closed tagged variant. Use the constructors below rather
// than building it by hand so each variant carries only its own fields.
type Response struct {
	Type             ResponseType  `json:"type"`
	Content          string        `json:"content,omitempty"`
	ApprovalRequired bool          `json:"approvalRequired"`
	Suggestions      []Suggestion  `json:"suggestions,omitempty"`
	Enhancements     []Enhancement `json:"enhancements,omitempty"`
	Metadata         Metadata      `json:"metadata"`
	GeneratedAt      time.Time     `json:"generatedAt"`
}

// Silent builds a response that carries nothing but metadata.
func Silent(meta Metadata) Response {
	return Response{Type: TypeSilent, Metadata: meta, GeneratedAt: time.Now()}
}

// Content builds a direct answer.
func Content(meta Metadata, content string, approvalRequired bool) Response {
	return Response{
		Type:             TypeContent,
		Content:          content,
		ApprovalRequired: approvalRequired,
		Metadata:         meta,
		GeneratedAt:      time.Now(),
	}
}

// WithSuggestions builds an answer carrying contextual suggestions.
func WithSuggestions(meta Metadata, content string, suggestions []Suggestion, approvalRequired bool) Response {
	return Response{
		Type:             TypeSuggestion,
		Content:          content,
		ApprovalRequired: approvalRequired,
		Suggestions:      suggestions,
		Metadata:         meta,
		GeneratedAt:      time.Now(),
	}
}

// WithEnhancements builds an answer carrying proactive enhancements.
func WithEnhancements(meta Metadata, content string, enhancements []Enhancement, approvalRequired bool) Response {
	return Response{
		Type:             TypeEnhancement,
		Content:          content,
		ApprovalRequired: approvalRequired,
		Enhancements:     enhancements,
		Metadata:         meta,
		GeneratedAt:      time.Now(),
	}
}

// Clone returns a deep copy. Slices are never shared between copies.
func (r Response) Clone() Response {
	r.Suggestions = slices.Clone(r.Suggestions)
	r.Enhancements = slices.Clone(r.Enhancements)
	return r
}
