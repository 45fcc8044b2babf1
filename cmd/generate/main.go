package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"gopkg.in/yaml.v3"
)

const (
	schemaName       = "backtest-engine-v1-config.json"
	sampleConfigName = "backtest-engine-v1-config.yaml"
)

func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}

func validateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if filepath.Ext(name) != ".json" {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

// generateSchemaFile writes schema to path, creating the parent directory.
func generateSchemaFile(schema string, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(schema), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes config as YAML to path unless the file already exists.
func generateSampleConfig(config engine.BacktestEngineV1Config, path string, schemaName string) error {
	if err := validateSchemaName(schemaName); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.WriteFile(path, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	return nil
}

// defaultParams returns the default parameters of a built-in strategy keyed by parameter name.
func defaultParams(name string) (map[string]any, error) {
	var params any

	switch name {
	case strategy.SmaCrossName:
		params = strategy.NewSmaCross().Params()
	case strategy.BollingerTrailName:
		params = strategy.NewBollingerTrail().Params()
	case strategy.VortexKeltnerName:
		params = strategy.NewVortexKeltner().Params()
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}

	content, err := yaml.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default params: %w", err)
	}

	out := map[string]any{}
	if err := yaml.Unmarshal(content, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default params: %w", err)
	}

	return out, nil
}

// generate writes the run configuration schema, a sample configuration and one parameter
// schema per built-in strategy into dir.
func generate(dir string) error {
	config := engine.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := generateSchemaFile(schemaJSON, filepath.Join(dir, schemaName)); err != nil {
		return err
	}

	params, err := defaultParams(strategy.SmaCrossName)
	if err != nil {
		return err
	}

	config.Strategy = strategy.SmaCrossName
	config.Params = params

	if err := generateSampleConfig(config, filepath.Join(dir, sampleConfigName), schemaName); err != nil {
		return err
	}

	for _, name := range strategy.Names() {
		s, err := strategy.New(name)
		if err != nil {
			return err
		}

		schema, err := s.ParamsSchema()
		if err != nil {
			return fmt.Errorf("failed to generate schema for %s: %w", name, err)
		}

		path := filepath.Join(dir, "strategies", strings.ReplaceAll(name, "_", "-")+".json")
		if err := generateSchemaFile(schema, path); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	dir := "./config"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := generate(dir); err != nil {
		log.Fatal(err)
	}

	log.Printf("Schemas and sample config successfully generated in %s", dir)
}
