package queryir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// filterWire is the serialized shape of a Filter.
type filterWire struct {
	Column   string   `json:"column" yaml:"column"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value" yaml:"value"`
}

func (w filterWire) filter() (Filter, error) {
	v, err := ScalarOf(w.Value)
	if err != nil {
		return Filter{}, fmt.Errorf("filter %q value: %w", w.Column, err)
	}
	return Filter{Column: w.Column, Operator: w.Operator, Value: v}, nil
}

// MarshalJSON implements json.Marshaler.
func (f Filter) MarshalJSON() ([]byte, error) {
	return json.Marshal(filterWire{Column: f.Column, Operator: f.Operator, Value: Native(f.Value)})
}

// UnmarshalJSON implements json.Unmarshaler. Numbers keep their integral
// or fractional nature rather than collapsing to float64.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var w filterWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return err
	}
	parsed, err := w.filter()
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (f Filter) MarshalYAML() (any, error) {
	return filterWire{Column: f.Column, Operator: f.Operator, Value: Native(f.Value)}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Filter) UnmarshalYAML(node *yaml.Node) error {
	var w filterWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	parsed, err := w.filter()
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// DecodeJSON reads one Query from JSON, rejecting unknown fields.
func DecodeJSON(r io.Reader) (*Query, error) {
	var q Query
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("failed to parse query JSON: %w", err)
	}
	return &q, nil
}

// DecodeYAML reads one Query from YAML, rejecting unknown fields.
func DecodeYAML(data []byte) (*Query, error) {
	var q Query
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("failed to parse query YAML: %w", err)
	}
	return &q, nil
}
