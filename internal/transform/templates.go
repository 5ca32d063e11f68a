package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// TemplateRegistry manages built-in stress templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []ScenarioTransform
}

// NewTemplateRegistry creates a new template registry with no templates
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names in sorted order
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateBuiltInTemplates creates the standard stress templates. Retirement
// templates are relative to the plant's commercial operation year.
func CreateBuiltInTemplates(codYear int) *TemplateRegistry {
	registry := NewTemplateRegistry()

	// Carbon price stresses
	registry.Register(Template{
		Name:        "carbon_x2",
		Description: "Double every carbon price point",
		Transforms: []ScenarioTransform{
			&ScaleCarbonPrice{Factor: decimal.NewFromInt(2)},
		},
	})

	registry.Register(Template{
		Name:        "carbon_half",
		Description: "Halve every carbon price point",
		Transforms: []ScenarioTransform{
			&ScaleCarbonPrice{Factor: decimal.NewFromFloat(0.5)},
		},
	})

	registry.Register(Template{
		Name:        "carbon_flat_100",
		Description: "Add a $100/t carbon price from the first operating year",
		Transforms: []ScenarioTransform{
			&SetCarbonPrice{Year: codYear, Price: decimal.NewFromInt(100)},
		},
	})

	// Transition stresses
	registry.Register(Template{
		Name:        "dispatch_10pct",
		Description: "Cut the capacity factor by 10 points",
		Transforms: []ScenarioTransform{
			&SetDispatchPenalty{Penalty: decimal.NewFromFloat(0.10)},
		},
	})

	registry.Register(Template{
		Name:        "dispatch_25pct",
		Description: "Cut the capacity factor by 25 points",
		Transforms: []ScenarioTransform{
			&SetDispatchPenalty{Penalty: decimal.NewFromFloat(0.25)},
		},
	})

	registry.Register(Template{
		Name:        "retire_10yr",
		Description: "Policy retirement 10 years after COD",
		Transforms: []ScenarioTransform{
			&SetRetirementYear{Year: codYear + 10},
		},
	})

	registry.Register(Template{
		Name:        "retire_15yr",
		Description: "Policy retirement 15 years after COD",
		Transforms: []ScenarioTransform{
			&SetRetirementYear{Year: codYear + 15},
		},
	})

	// Physical stresses
	registry.Register(Template{
		Name:        "hazards_x2",
		Description: "Double physical hazard rates",
		Transforms: []ScenarioTransform{
			&ScaleHazards{Factor: decimal.NewFromInt(2)},
		},
	})

	registry.Register(Template{
		Name:        "hazards_x3",
		Description: "Triple physical hazard rates",
		Transforms: []ScenarioTransform{
			&ScaleHazards{Factor: decimal.NewFromInt(3)},
		},
	})

	// Attribution templates strip one family to isolate the others
	registry.Register(Template{
		Name:        "transition_only",
		Description: "Drop physical risk inputs",
		Transforms: []ScenarioTransform{
			&ClearRisk{Family: "physical"},
		},
	})

	registry.Register(Template{
		Name:        "physical_only",
		Description: "Drop transition and carbon risk inputs",
		Transforms: []ScenarioTransform{
			&ClearRisk{Family: "transition"},
			&ClearRisk{Family: "carbon"},
		},
	})

	registry.Register(Template{
		Name:        "no_carbon",
		Description: "Drop carbon pricing",
		Transforms: []ScenarioTransform{
			&ClearRisk{Family: "carbon"},
		},
	})

	// Combination
	registry.Register(Template{
		Name:        "severe",
		Description: "Double carbon prices and hazard rates",
		Transforms: []ScenarioTransform{
			&ScaleCarbonPrice{Factor: decimal.NewFromInt(2)},
			&ScaleHazards{Factor: decimal.NewFromInt(2)},
		},
	})

	return registry
}

// ApplyTemplate applies a template to a base scenario. The result is renamed
// "<base>+<template>".
func ApplyTemplate(base *domain.ScenarioBundle, template Template) (*domain.ScenarioBundle, error) {
	if base == nil {
		return nil, fmt.Errorf("base scenario cannot be nil")
	}
	out, err := ApplyTransforms(base, template.Transforms)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", template.Name, err)
	}
	out.Name = base.Name + "+" + template.Name
	out.Description = template.Description
	return out, nil
}

// ParseTemplateList parses a comma-separated list of template names
func ParseTemplateList(templateList string) []string {
	if templateList == "" {
		return nil
	}

	parts := strings.Split(templateList, ",")
	templates := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			templates = append(templates, trimmed)
		}
	}
	return templates
}

// GetTemplateHelp returns formatted help text for all templates
func GetTemplateHelp(registry *TemplateRegistry) string {
	if len(registry.templates) == 0 {
		return "No templates registered"
	}

	var sb strings.Builder
	sb.WriteString("Available Templates:\n\n")

	categories := map[string][]Template{}
	order := []string{"Carbon Price", "Transition", "Physical", "Attribution", "Combination"}
	for _, name := range registry.List() {
		t := registry.templates[name]
		var category string
		switch {
		case strings.HasPrefix(name, "carbon_"):
			category = "Carbon Price"
		case strings.HasPrefix(name, "dispatch_"), strings.HasPrefix(name, "retire_"):
			category = "Transition"
		case strings.HasPrefix(name, "hazards_"):
			category = "Physical"
		case strings.HasSuffix(name, "_only"), strings.HasPrefix(name, "no_"):
			category = "Attribution"
		default:
			category = "Combination"
		}
		categories[category] = append(categories[category], t)
	}

	for _, category := range order {
		templates := categories[category]
		if len(templates) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("%s:\n", category))
		for _, t := range templates {
			sb.WriteString(fmt.Sprintf("  %-20s %s\n", t.Name, t.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Usage:\n")
	sb.WriteString("  crp compare plant.yaml --base stated_policies --with carbon_x2,hazards_x2\n")
	sb.WriteString("  crp compare plant.yaml --base stated_policies --with severe\n")

	return sb.String()
}
