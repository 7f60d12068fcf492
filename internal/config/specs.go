package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/typing/pkg/typing"
	"github.com/calvinalkan/typing/pkg/vault"
)

// ErrSpecsInvalid reports a type spec file that cannot be decoded.
var ErrSpecsInvalid = errors.New("invalid type spec file")

// specFile is the object form of a spec file. A bare list of specs is
// accepted too.
type specFile struct {
	Types []typing.Spec `json:"types" yaml:"types"`
}

// LoadSpecs reads and parses the types file at p in storage.
func LoadSpecs(ctx context.Context, storage vault.Storage, p string) ([]typing.Spec, error) {
	text, err := storage.Read(ctx, p)
	if err != nil {
		return nil, err
	}

	return ParseSpecs(p, []byte(text))
}

// ParseSpecs decodes type specs. Files named *.yaml or *.yml are YAML;
// everything else is JSONC. Unknown keys are rejected.
func ParseSpecs(name string, data []byte) ([]typing.Spec, error) {
	var (
		specs []typing.Spec
		err   error
	)

	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		specs, err = parseYAML(data)
	default:
		specs, err = parseJSONC(data)
	}

	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrSpecsInvalid, name, err)
	}

	return specs, nil
}

func parseJSONC(data []byte) ([]typing.Spec, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	trimmed := bytes.TrimSpace(standardized)
	if len(trimmed) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	if trimmed[0] == '[' {
		var specs []typing.Spec

		err = dec.Decode(&specs)
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}

		return specs, nil
	}

	var f specFile

	err = dec.Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	return f.Types, nil
}

func parseYAML(data []byte) ([]typing.Spec, error) {
	var node yaml.Node

	err := yaml.Unmarshal(data, &node)
	if err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if len(node.Content) == 0 {
		return nil, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if node.Content[0].Kind == yaml.SequenceNode {
		var specs []typing.Spec

		err = dec.Decode(&specs)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}

		return specs, nil
	}

	var f specFile

	err = dec.Decode(&f)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	return f.Types, nil
}
