package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rgehrsitz/crp/internal/domain"
	"gopkg.in/yaml.v3"
)

// AnalysisOptions carries run-level choices stored alongside the inputs.
type AnalysisOptions struct {
	// BaselineScenario names the scenario used as the reference in baseline CRP mode.
	// It is ignored in counterfactual mode.
	BaselineScenario string `yaml:"baseline_scenario,omitempty" json:"baseline_scenario,omitempty"`
	Parallelism      int    `yaml:"parallelism,omitempty" json:"parallelism,omitempty" validate:"gte=0,lte=256"`
}

// AnalysisInput is the document read by the CLI: one plant, its financing
// calibration, and the scenarios to evaluate against it.
type AnalysisInput struct {
	Plant     domain.PlantParameters      `yaml:"plant" json:"plant"`
	Financing *domain.FinancingParameters `yaml:"financing,omitempty" json:"financing,omitempty"`
	Scenarios []domain.ScenarioBundle     `yaml:"scenarios" json:"scenarios"`
	Options   AnalysisOptions             `yaml:"options,omitempty" json:"options,omitempty"`
}

// FinancingParameters returns the configured financing with defaults filled, or the
// default calibration when the document omits the section.
func (in *AnalysisInput) FinancingParameters() domain.FinancingParameters {
	if in.Financing == nil {
		return domain.DefaultFinancingParameters()
	}
	return in.Financing.WithDefaults()
}

// Scenario finds a scenario by name.
func (in *AnalysisInput) Scenario(name string) (*domain.ScenarioBundle, bool) {
	for i := range in.Scenarios {
		if in.Scenarios[i].Name == name {
			return &in.Scenarios[i], true
		}
	}
	return nil, false
}

// ScenarioNames lists scenario names in document order.
func (in *AnalysisInput) ScenarioNames() []string {
	names := make([]string, len(in.Scenarios))
	for i, s := range in.Scenarios {
		names[i] = s.Name
	}
	return names
}

// InputParser handles parsing of analysis input files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads an analysis input from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*AnalysisInput, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates an input document. Unknown keys are rejected so that
// a misspelt field does not silently fall back to zero.
func (ip *InputParser) Parse(data []byte) (*AnalysisInput, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var input AnalysisInput
	if err := dec.Decode(&input); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: document is empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateInput(&input); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &input, nil
}

// ValidateInput validates the loaded document
func (ip *InputParser) ValidateInput(input *AnalysisInput) error {
	if err := input.Plant.Validate(); err != nil {
		return fmt.Errorf("plant validation failed: %w", err)
	}
	if input.Financing != nil {
		if err := input.Financing.Validate(); err != nil {
			return fmt.Errorf("financing validation failed: %w", err)
		}
	}
	if err := ip.validateScenarios(input); err != nil {
		return err
	}
	return ip.validateOptions(input)
}

func (ip *InputParser) validateScenarios(input *AnalysisInput) error {
	if len(input.Scenarios) == 0 {
		return fmt.Errorf("no scenarios provided")
	}
	seen := make(map[string]int, len(input.Scenarios))
	for i, scenario := range input.Scenarios {
		if prev, dup := seen[scenario.Name]; dup && scenario.Name != "" {
			return fmt.Errorf("scenario %d duplicates the name %q of scenario %d", i, scenario.Name, prev)
		}
		seen[scenario.Name] = i
		if err := scenario.Validate(input.Plant); err != nil {
			return fmt.Errorf("scenario %d (%s) validation failed: %w", i, scenario.Name, err)
		}
	}
	return nil
}

func (ip *InputParser) validateOptions(input *AnalysisInput) error {
	if err := domain.Validator().Struct(input.Options); err != nil {
		return fmt.Errorf("options validation failed: %w", err)
	}
	baseline := input.Options.BaselineScenario
	if baseline == "" {
		return nil
	}
	if _, ok := input.Scenario(baseline); !ok {
		return fmt.Errorf("baseline scenario %q is not defined", baseline)
	}
	return nil
}
