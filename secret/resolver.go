package secret

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// RefPrefix marks a value, or part of one, as a secret reference:
// secretref:<provider>:<ref>.
const RefPrefix = "secretref:"

var inlineRef = regexp.MustCompile(`secretref:([A-Za-z0-9_-]+):(\S+)`)

// Resolver expands environment variables and then replaces secret
// references with provider values.
type Resolver struct {
	providers map[string]Provider
	lookup    func(string) (string, bool)
}

// NewResolver creates a Resolver over providers. Later providers with the
// same name replace earlier ones.
func NewResolver(providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider, len(providers)), lookup: os.LookupEnv}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// DefaultResolver resolves env and file references.
func DefaultResolver() *Resolver {
	return NewResolver(NewEnvProvider(), &FileProvider{})
}

// ParseRef splits a whole-value reference into provider and ref.
func ParseRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, RefPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, ok = strings.Cut(rest, ":")
	if !ok || provider == "" || ref == "" || strings.ContainsAny(ref, " \t\r\n") {
		return "", "", false
	}
	return provider, ref, true
}

// Resolve returns value with environment variables expanded and every
// secret reference replaced.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvFunc(value, r.lookup)
	if err != nil {
		return "", err
	}
	if !strings.Contains(expanded, RefPrefix) {
		return expanded, nil
	}
	if provider, ref, ok := ParseRef(expanded); ok {
		return r.resolveRef(ctx, provider, ref)
	}

	matches := inlineRef.FindAllStringSubmatchIndex(expanded, -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, expanded)
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		v, err := r.resolveRef(ctx, expanded[m[2]:m[3]], expanded[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		b.WriteString(expanded[last:m[0]])
		b.WriteString(v)
		last = m[1]
	}
	b.WriteString(expanded[last:])
	return b.String(), nil
}

func (r *Resolver) resolveRef(ctx context.Context, provider, ref string) (string, error) {
	p, ok := r.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return p.Resolve(ctx, ref)
}
