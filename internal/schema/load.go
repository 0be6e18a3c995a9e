package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Declaration is the on-disk shape of one dataset.
// The json tags drive CUE decoding, the yaml tags YAML decoding.
type Declaration struct {
	ID      string              `json:"id" yaml:"id"`
	Table   string              `json:"table,omitempty" yaml:"table,omitempty"`
	Columns []ColumnDeclaration `json:"columns" yaml:"columns"`
}

// ColumnDeclaration declares one column. An omitted semantic type is
// inferred from the name and physical type.
type ColumnDeclaration struct {
	Name         string `json:"name" yaml:"name"`
	PhysicalType string `json:"physical_type,omitempty" yaml:"physical_type,omitempty"`
	SemanticType string `json:"semantic_type,omitempty" yaml:"semantic_type,omitempty"`
}

// Column converts the declaration.
func (c ColumnDeclaration) Column() (Column, error) {
	col := Column{Name: c.Name, PhysicalType: c.PhysicalType}
	if c.SemanticType == "" {
		col.SemanticType = InferSemanticType(c.Name, c.PhysicalType)
		return col, nil
	}
	st, err := ParseSemanticType(c.SemanticType)
	if err != nil {
		return Column{}, fmt.Errorf("column %q: %w", c.Name, err)
	}
	col.SemanticType = st
	return col, nil
}

type yamlFile struct {
	Datasets []Declaration `yaml:"datasets"`
}

// LoadFile reads snapshot declarations from a .yaml/.yml or .cue file.
func LoadFile(path string) (*MemoryProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var snapshots []*Snapshot
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		snapshots, err = ParseYAML(data)
	case ".cue":
		snapshots, err = ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("unsupported schema file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewMemoryProvider(snapshots...), nil
}

// ParseYAML parses snapshot declarations from YAML.
// Unknown fields are rejected so typos surface as errors.
func ParseYAML(data []byte) ([]*Snapshot, error) {
	var f yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return buildSnapshots(f.Datasets)
}

// ParseCUE parses snapshot declarations from CUE source.
// Datasets are declared as fields of a top-level "datasets" struct; the
// field label is the dataset id unless an explicit id is given.
func ParseCUE(data []byte, filename string) ([]*Snapshot, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}

	datasetsVal := v.LookupPath(cue.ParsePath("datasets"))
	if !datasetsVal.Exists() {
		return nil, fmt.Errorf("no datasets declared")
	}

	iter, err := datasetsVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("datasets must be a struct: %w", err)
	}

	var decls []Declaration
	for iter.Next() {
		var d Declaration
		if err := iter.Value().Decode(&d); err != nil {
			return nil, fmt.Errorf("dataset %s: %w", iter.Label(), err)
		}
		if d.ID == "" {
			d.ID = iter.Label()
		}
		decls = append(decls, d)
	}
	return buildSnapshots(decls)
}

// Snapshot builds the snapshot the declaration describes.
func (d Declaration) Snapshot() (*Snapshot, error) {
	cols := make([]Column, 0, len(d.Columns))
	for _, cd := range d.Columns {
		col, err := cd.Column()
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", d.ID, err)
		}
		cols = append(cols, col)
	}

	s, err := NewSnapshot(d.ID, cols)
	if err != nil {
		return nil, err
	}
	if d.Table != "" {
		s = s.WithTable(d.Table)
	}
	return s, nil
}

func buildSnapshots(decls []Declaration) ([]*Snapshot, error) {
	out := make([]*Snapshot, 0, len(decls))
	seen := make(map[string]bool, len(decls))
	for _, d := range decls {
		if seen[d.ID] {
			return nil, fmt.Errorf("duplicate dataset %q", d.ID)
		}
		seen[d.ID] = true

		s, err := d.Snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
