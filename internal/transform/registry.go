package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// TransformRegistry provides a central registry for all available transforms.
// It enables creation of transforms from string parameters, useful for CLI commands.
type TransformRegistry struct {
	factories map[string]TransformFactory
}

// TransformFactory is a function that creates a transform from parameters.
type TransformFactory func(params map[string]string) (ScenarioTransform, error)

// NewTransformRegistry creates a new registry with all built-in transforms registered.
func NewTransformRegistry() *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
	}

	registry.Register("scale_carbon_price", createScaleCarbonPrice)
	registry.Register("set_carbon_price", createSetCarbonPrice)
	registry.Register("set_dispatch_penalty", createSetDispatchPenalty)
	registry.Register("set_retirement_year", createSetRetirementYear)
	registry.Register("scale_hazards", createScaleHazards)
	registry.Register("clear_risk", createClearRisk)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (ScenarioTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the names of all registered transforms in sorted order.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses a transform specification string.
// Format: "transform_name:param1=value1,param2=value2"
// Example: "scale_carbon_price:factor=1.5"
func (r *TransformRegistry) ParseTransformSpec(spec string) (ScenarioTransform, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid transform spec format, expected 'name:params', got: %s", spec)
	}

	name := strings.TrimSpace(parts[0])
	paramsStr := strings.TrimSpace(parts[1])

	params := make(map[string]string)
	if paramsStr != "" {
		for _, paramPair := range strings.Split(paramsStr, ",") {
			kv := strings.SplitN(paramPair, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", paramPair)
			}
			params[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return r.Create(name, params)
}

func decimalParam(transform string, params map[string]string, key string) (decimal.Decimal, error) {
	raw, ok := params[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func intParam(transform string, params map[string]string, key string) (int, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func createScaleCarbonPrice(params map[string]string) (ScenarioTransform, error) {
	factor, err := decimalParam("scale_carbon_price", params, "factor")
	if err != nil {
		return nil, err
	}
	return &ScaleCarbonPrice{Factor: factor}, nil
}

func createSetCarbonPrice(params map[string]string) (ScenarioTransform, error) {
	year, err := intParam("set_carbon_price", params, "year")
	if err != nil {
		return nil, err
	}
	price, err := decimalParam("set_carbon_price", params, "price")
	if err != nil {
		return nil, err
	}
	return &SetCarbonPrice{Year: year, Price: price}, nil
}

func createSetDispatchPenalty(params map[string]string) (ScenarioTransform, error) {
	penalty, err := decimalParam("set_dispatch_penalty", params, "penalty")
	if err != nil {
		return nil, err
	}
	return &SetDispatchPenalty{Penalty: penalty}, nil
}

func createSetRetirementYear(params map[string]string) (ScenarioTransform, error) {
	year, err := intParam("set_retirement_year", params, "year")
	if err != nil {
		return nil, err
	}
	return &SetRetirementYear{Year: year}, nil
}

func createScaleHazards(params map[string]string) (ScenarioTransform, error) {
	factor, err := decimalParam("scale_hazards", params, "factor")
	if err != nil {
		return nil, err
	}
	return &ScaleHazards{Factor: factor}, nil
}

func createClearRisk(params map[string]string) (ScenarioTransform, error) {
	family, ok := params["family"]
	if !ok {
		return nil, fmt.Errorf("clear_risk requires 'family' parameter")
	}
	return &ClearRisk{Family: family}, nil
}
