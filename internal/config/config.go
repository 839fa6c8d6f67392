// Package config loads the static defaults used to seed BusinessRule rows
// and the database connection block, mirroring the teacher's
// rules/policy YAML-loading convention.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"buyerdispatch/pkg/geo"
)

// BusinessRuleDefaults seeds a BusinessRule row on first boot when the
// database has none yet. Once persisted, the database row is the source
// of truth; this struct is never consulted again for a given business
// rule set.
type BusinessRuleDefaults struct {
	CutoffTime            string  `yaml:"cutoff_time"`
	WeekendProcessing      bool    `yaml:"weekend_processing"`
	HolidayOverride        bool    `yaml:"holiday_override"`
	DefaultStartLocationID *int64  `yaml:"default_start_location"`
	MaxOrdersPerStaff      int     `yaml:"max_orders_per_staff"`
	AutoAssign             bool    `yaml:"auto_assign"`
	OptimizationPriority   string  `yaml:"optimization_priority"`
	MaxRouteTimeHours      float64 `yaml:"max_route_time_hours"`
	IncludeReturn          bool    `yaml:"include_return"`
}

// LoadBusinessRuleDefaults reads a YAML file of BusinessRule defaults.
func LoadBusinessRuleDefaults(path string) (*BusinessRuleDefaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read business rule defaults: %w", err)
	}
	var d BusinessRuleDefaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("config: parse business rule defaults: %w", err)
	}
	return &d, nil
}

// districtEntry mirrors geo.District's YAML shape.
type districtEntry struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

// LoadDistrictGazetteer reads the known district centroids used to
// approximate a store's coordinates from its free-text address when no
// geocoded latitude/longitude is on file. A missing file is not fatal: it
// yields an empty gazetteer, which makes ResolveApprox always report false.
func LoadDistrictGazetteer(path string) (*geo.Gazetteer, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return geo.NewGazetteer(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read district gazetteer: %w", err)
	}
	var entries []districtEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("config: parse district gazetteer: %w", err)
	}
	districts := make([]geo.District, 0, len(entries))
	for _, e := range entries {
		districts = append(districts, geo.District{Name: e.Name, Center: geo.Point{Lat: e.Lat, Lng: e.Lng}})
	}
	return geo.NewGazetteer(districts), nil
}

// DBConfig holds the BLUEPRINT_DB_* connection parameters, read directly
// from the environment by internal/database.
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Schema   string
}

// DBConfigFromEnv reads the BLUEPRINT_DB_* variables the teacher's
// database_migration_test.go contract expects.
func DBConfigFromEnv() DBConfig {
	return DBConfig{
		Host:     os.Getenv("BLUEPRINT_DB_HOST"),
		Port:     os.Getenv("BLUEPRINT_DB_PORT"),
		Username: os.Getenv("BLUEPRINT_DB_USERNAME"),
		Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
		Database: os.Getenv("BLUEPRINT_DB_DATABASE"),
		Schema:   os.Getenv("BLUEPRINT_DB_SCHEMA"),
	}
}
