package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"healthwatch/internal/model"
)

// ServicesFile represents the root structure of a services registry file.
type ServicesFile struct {
	Services []model.ServiceDefinition `yaml:"services"`
}

// LoadServices reads the service registry from the specified YAML file.
func LoadServices(servicesPath string) ([]model.ServiceDefinition, error) {
	if servicesPath == "" {
		return nil, fmt.Errorf("services file path is required")
	}

	if _, err := os.Stat(servicesPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("services file not found: %s", servicesPath)
	}

	data, err := os.ReadFile(servicesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read services file: %w", err)
	}

	var file ServicesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse services file: %w", err)
	}

	for i, svc := range file.Services {
		if svc.Name == "" {
			return nil, fmt.Errorf("service at index %d has no name", i)
		}
	}

	return file.Services, nil
}

// CountProbedServices returns the number of services that are actually probed.
func CountProbedServices(services []model.ServiceDefinition) int {
	count := 0
	for _, svc := range services {
		if svc.Kind.Normalize() != model.ServiceKindMock {
			count++
		}
	}
	return count
}
