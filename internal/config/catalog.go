package config

import (
	"fmt"
	"os"

	"github.com/BartekS5/opendota-extract/pkg/models"
)

// LoadCatalog reads and parses an endpoint catalog file. Every endpoint in it
// is checked so a bad descriptor fails at startup rather than mid-run.
func LoadCatalog(filePath string) (*models.Catalog, error) {
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file '%s': %w", filePath, err)
	}

	catalog, err := models.LoadCatalog(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog file '%s': %w", filePath, err)
	}
	if len(catalog.Endpoints) == 0 {
		return nil, fmt.Errorf("catalog file '%s' declares no endpoints", filePath)
	}

	for _, ep := range catalog.Endpoints {
		if err := ep.Check(); err != nil {
			return nil, fmt.Errorf("catalog file '%s': %w", filePath, err)
		}
	}

	return catalog, nil
}
