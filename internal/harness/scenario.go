package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querygate/internal/gate"
	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
)

// Scenario is one pipeline conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates. It is passed to
	// the pipeline as the raw request text.
	Description string `yaml:"description"`

	// Schema declares the dataset. When Data is set only the id (and
	// optionally table) may be given; columns come from the import.
	Schema schema.Declaration `yaml:"schema"`

	// Data is optional inline CSV with a header row.
	Data string `yaml:"data,omitempty"`

	// Query is the request to run.
	Query queryir.Query `yaml:"query"`

	// Expect holds the assertions. Unset fields are not checked.
	Expect Expectation `yaml:"expect"`
}

// Expectation lists the checks applied to a pipeline response.
type Expectation struct {
	Valid         *bool    `yaml:"valid,omitempty"`
	Corrections   *int     `yaml:"corrections,omitempty"`
	Errors        *int     `yaml:"errors,omitempty"`
	ErrorContains []string `yaml:"error_contains,omitempty"`
	Action        string   `yaml:"action,omitempty"`
	ConfidenceMin *float64 `yaml:"confidence_min,omitempty"`
	ConfidenceMax *float64 `yaml:"confidence_max,omitempty"`
	SQLContains   []string `yaml:"sql_contains,omitempty"`
	Profiling     *bool    `yaml:"profiling,omitempty"`
	RowCount      *int64   `yaml:"row_count,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema.ID == "" {
		return fmt.Errorf("schema.id is required")
	}

	if s.Data == "" && len(s.Schema.Columns) == 0 {
		return fmt.Errorf("schema.columns is required when no data is given")
	}
	if s.Data != "" && len(s.Schema.Columns) > 0 {
		return fmt.Errorf("schema.columns must be empty when data is given")
	}
	if s.Data == "" && s.Expect.RowCount != nil {
		return fmt.Errorf("expect.row_count needs data")
	}

	if s.Query.DatasetID != "" && s.Query.DatasetID != s.Schema.ID {
		return fmt.Errorf("query.dataset_id %q does not match schema.id %q", s.Query.DatasetID, s.Schema.ID)
	}

	if s.Expect.Action != "" {
		if _, err := gate.ParseAction(s.Expect.Action); err != nil {
			return fmt.Errorf("expect.action: %w", err)
		}
	}
	if lo, hi := s.Expect.ConfidenceMin, s.Expect.ConfidenceMax; lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("expect.confidence_min %v is above confidence_max %v", *lo, *hi)
	}
	return nil
}

// Discover finds scenario files (.yaml, .yml) under dir, in lexical order.
// A non-empty filter is a glob matched against the file name without its
// extension.
func Discover(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && info.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}
