package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/modeflow/secret"
)

// EnvPath overrides the configuration path when Load is given none.
const EnvPath = "MODEFLOW_CONFIG"

// DefaultPath is read when neither a path nor EnvPath is set.
const DefaultPath = "modeflow.yaml"

// Resolver resolves secret references and environment variables in
// configuration values.
type Resolver interface {
	Resolve(ctx context.Context, value string) (string, error)
}

// Load reads the file at path, or the one named by EnvPath, or
// DefaultPath. A missing DefaultPath yields Defaults; a missing explicit
// path is an error. String values are resolved with secret.DefaultResolver
// before decoding. The result is not validated.
func Load(ctx context.Context, path string) (Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		path, explicit = DefaultPath, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(ctx, data, secret.DefaultResolver())
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML onto Defaults. Every string scalar passes through r
// first, so a value may be ${VAR} or secretref:<provider>:<ref>. Unknown
// keys are rejected.
func Parse(ctx context.Context, data []byte, r Resolver) (Config, error) {
	cfg := Defaults()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return cfg, nil
	}
	if err := resolveNode(ctx, &root, r); err != nil {
		return Config{}, err
	}

	// Decode through the encoder again so KnownFields applies.
	resolved, err := yaml.Marshal(&root)
	if err != nil {
		return Config{}, fmt.Errorf("re-encode yaml: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(resolved))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	return cfg, nil
}

func resolveNode(ctx context.Context, n *yaml.Node, r Resolver) error {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			if err := resolveNode(ctx, c, r); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			if err := resolveNode(ctx, n.Content[i], r); err != nil {
				return fmt.Errorf("%s: %w", n.Content[i-1].Value, err)
			}
		}
	case yaml.ScalarNode:
		if n.ShortTag() != "!!str" {
			return nil
		}
		v, err := r.Resolve(ctx, n.Value)
		if err != nil {
			return err
		}
		if v != n.Value {
			// Let the resolved text pick its own type, so ${PORT} can fill
			// an int.
			n.Value, n.Tag, n.Style = v, "", 0
		}
	}
	return nil
}
