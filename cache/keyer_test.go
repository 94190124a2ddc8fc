package cache

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/jonwraymond/modeflow/request"
)

var hexHash = regexp.MustCompile(`^[0-9a-f]{16}$`)

func sampleContext() request.WritingContext {
	return request.WritingContext{
		DocumentType:   "screenplay",
		WritingPhase:   "revision",
		UserGoals:      []string{"tighten dialogue", "raise stakes"},
		UserExperience: request.ExperienceAdvanced,
	}
}

func TestKeyer_HashFormat(t *testing.T) {
	keyer := NewDefaultKeyer()

	h, err := keyer.HashRequest(request.Request{Kind: request.KindRewrite, Content: "hello"})
	if err != nil {
		t.Fatalf("HashRequest() error = %v", err)
	}
	if !hexHash.MatchString(h) {
		t.Errorf("HashRequest() = %q, want 16 hex chars", h)
	}

	c, err := keyer.HashContext(sampleContext())
	if err != nil {
		t.Fatalf("HashContext() error = %v", err)
	}
	if !hexHash.MatchString(c) {
		t.Errorf("HashContext() = %q, want 16 hex chars", c)
	}
}

func TestKeyer_Deterministic(t *testing.T) {
	keyer := NewDefaultKeyer()
	req := request.Request{Kind: request.KindCompletion, Content: "The rain fell", ExplicitlyUserInitiated: true}

	first, _ := keyer.HashRequest(req)
	for i := 0; i < 10; i++ {
		got, _ := keyer.HashRequest(req)
		if got != first {
			t.Fatalf("iteration %d: hash %s != %s", i, got, first)
		}
	}

	c1, _ := keyer.HashContext(sampleContext())
	c2, _ := NewDefaultKeyer().HashContext(sampleContext())
	if c1 != c2 {
		t.Errorf("context hash not stable across keyers: %s vs %s", c1, c2)
	}
}

func TestKeyer_GoalOrderPreserved(t *testing.T) {
	keyer := NewDefaultKeyer()

	a := sampleContext()
	b := sampleContext()
	b.UserGoals = []string{a.UserGoals[1], a.UserGoals[0]}

	ha, _ := keyer.HashContext(a)
	hb, _ := keyer.HashContext(b)
	if ha == hb {
		t.Error("reordered goals should hash differently")
	}
}

func TestKeyer_FieldsThatChangeResponseShape(t *testing.T) {
	keyer := NewDefaultKeyer()
	base := request.Request{Kind: request.KindCompletion, Content: "x"}

	explicit := base
	explicit.ExplicitlyUserInitiated = true

	otherKind := base
	otherKind.Kind = request.KindBrainstorm

	approval := true
	withApproval := base
	withApproval.ApprovalRequired = &approval

	hBase, _ := keyer.HashRequest(base)
	for name, req := range map[string]request.Request{
		"explicit": explicit,
		"kind":     otherKind,
		"approval": withApproval,
	} {
		h, _ := keyer.HashRequest(req)
		if h == hBase {
			t.Errorf("%s change did not change the hash", name)
		}
	}
}

func TestKeyer_InvalidUTF8Distinct(t *testing.T) {
	keyer := NewDefaultKeyer()

	h1, err := keyer.HashRequest(request.Request{Kind: request.KindCompletion, Content: "draft \xff"})
	if err != nil {
		t.Fatalf("HashRequest() error = %v", err)
	}
	h2, _ := keyer.HashRequest(request.Request{Kind: request.KindCompletion, Content: "draft \xfe"})
	h3, _ := keyer.HashRequest(request.Request{Kind: request.KindCompletion, Content: "draft \uFFFD"})
	if h1 == h2 || h1 == h3 || h2 == h3 {
		t.Errorf("distinct byte content shares a hash: %s %s %s", h1, h2, h3)
	}

	wctx := sampleContext()
	c1, _ := keyer.HashContext(wctx)
	wctx.DocumentType = "screenplay\xff"
	c2, _ := keyer.HashContext(wctx)
	wctx.DocumentType = "screenplay\xfe"
	c3, _ := keyer.HashContext(wctx)
	if c1 == c2 || c2 == c3 {
		t.Errorf("distinct context bytes share a hash: %s %s %s", c1, c2, c3)
	}
}

func TestKeyer_ContentTruncation(t *testing.T) {
	keyer := &DefaultKeyer{ContentLimit: 10}
	prefix := strings.Repeat("a", 10)

	// Same prefix, same length, different tail: these keys collide.
	h1, _ := keyer.HashRequest(request.Request{Kind: request.KindAnalysis, Content: prefix + "xyz"})
	h2, _ := keyer.HashRequest(request.Request{Kind: request.KindAnalysis, Content: prefix + "abc"})
	if h1 != h2 {
		t.Error("content beyond the limit should not affect the hash")
	}

	// Same prefix, different length: differ.
	h3, _ := keyer.HashRequest(request.Request{Kind: request.KindAnalysis, Content: prefix + "abcd"})
	if h1 == h3 {
		t.Error("content length should be part of the hash")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"日本語テキスト", 3, "日本語"},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestHashCanonical_DegradesToSentinel(t *testing.T) {
	// Channels cannot be JSON encoded.
	h, err := hashCanonical(map[string]any{"bad": make(chan int)})
	if h != SentinelHash {
		t.Errorf("hash = %q, want sentinel", h)
	}
	if !errors.Is(err, ErrDegradedHash) {
		t.Errorf("error = %v, want ErrDegradedHash", err)
	}
}

func TestCanonicalize_SortedMaps(t *testing.T) {
	got, err := canonicalize(map[string]any{"b": 2, "a": []any{"x", nil}})
	if err != nil {
		t.Fatalf("canonicalize() error = %v", err)
	}
	if string(got) != `{"a":["x",null],"b":2}` {
		t.Errorf("canonicalize() = %s", got)
	}
}
