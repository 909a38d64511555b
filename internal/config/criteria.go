package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
)

// LoadCriteria overlays the TOML file at path on the default search
// criteria. An empty path returns the defaults.
func LoadCriteria(path string) (domain.Criteria, error) {
	c := domain.DefaultCriteria()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return domain.Criteria{}, fmt.Errorf("open CRITERIA_FILE: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&c); err != nil {
			return domain.Criteria{}, fmt.Errorf("parse CRITERIA_FILE: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return domain.Criteria{}, fmt.Errorf("invalid criteria: %w", err)
	}
	return c, nil
}
