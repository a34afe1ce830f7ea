// Package source loads evaluations from the places they are kept.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/okian/brevet/internal/domain/model"
	"github.com/okian/brevet/internal/domain/types"
)

// Source supplies raw evaluation records.
type Source interface {
	Evaluations(ctx context.Context) ([]model.Evaluation, error)
}

// File reads evaluations from JSON or YAML files. Each pattern is a path or
// a doublestar glob ("exports/**/*.json").
type File struct {
	patterns []string
}

// NewFile returns a File source over the given patterns.
func NewFile(patterns ...string) *File {
	return &File{patterns: patterns}
}

// Files expands the patterns into a sorted, de-duplicated list of paths.
func (f *File) Files() ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	for _, pattern := range f.patterns {
		matches, err := expand(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			clean := filepath.Clean(m)
			if _, ok := seen[clean]; ok {
				continue
			}
			seen[clean] = struct{}{}
			paths = append(paths, clean)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, strings.Join(f.patterns, ", "))
	}
	sort.Strings(paths)
	return paths, nil
}

func expand(pattern string) ([]string, error) {
	if !hasMeta(pattern) {
		if _, err := os.Stat(pattern); err != nil {
			return nil, fmt.Errorf("stat %s: %w", pattern, err)
		}
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	return matches, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// Evaluations loads every matched file in path order.
func (f *File) Evaluations(ctx context.Context) ([]model.Evaluation, error) {
	paths, err := f.Files()
	if err != nil {
		return nil, err
	}
	var out []model.Evaluation
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		evals, err := ReadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, evals...)
	}
	return out, nil
}

// ReadFile decodes one evaluation file, picking the format from its extension.
func ReadFile(path string) ([]model.Evaluation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var in []types.EvaluationInput
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		in, err = decodeJSON(data)
	case ".yaml", ".yml":
		in, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDecode, path, err)
	}
	return types.ToModels(in), nil
}

// decodeJSON accepts a bare list or {"evaluations": [...]}.
func decodeJSON(data []byte) ([]types.EvaluationInput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []types.EvaluationInput
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var doc types.AnalyzeRequest
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc.Evaluations, nil
}

// decodeYAML accepts a bare sequence or a mapping with an evaluations key.
func decodeYAML(data []byte) ([]types.EvaluationInput, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var list []types.EvaluationInput
		if err := root.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var doc types.AnalyzeRequest
	if err := root.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Evaluations, nil
}
