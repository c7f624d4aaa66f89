package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"product_registration_bot/internal/domain/warranty"
)

// LoadWarrantyPolicy returns the built-in warranty policy, overlaid with the
// YAML file at path when one is given. Years present in the file replace the
// built-in entry for that year; missing scalar fields keep their defaults.
func LoadWarrantyPolicy(path, headOfficeLink string) (warranty.Policy, error) {
	policy := warranty.DefaultPolicy()
	if headOfficeLink != "" {
		policy.HeadOfficeLink = headOfficeLink
	}
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("failed to read warranty policy file: %w", err)
	}

	var override warranty.Policy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return policy, fmt.Errorf("failed to parse warranty policy file %s: %w", path, err)
	}

	if override.DefaultYear != "" {
		policy.DefaultYear = override.DefaultYear
	}
	if override.PromoYear != "" {
		policy.PromoYear = override.PromoYear
	}
	if override.PromoWindow > 0 {
		policy.PromoWindow = override.PromoWindow
	}
	if override.HeadOfficeLink != "" {
		policy.HeadOfficeLink = override.HeadOfficeLink
	}
	for year, terms := range override.Years {
		policy.Years[year] = terms
	}

	if _, ok := policy.Years[policy.DefaultYear]; !ok {
		return policy, fmt.Errorf("warranty policy has no terms for default year %s", policy.DefaultYear)
	}
	return policy, nil
}
