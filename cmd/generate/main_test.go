package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type GenerateCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func TestGenerateCmdSuite(t *testing.T) {
	suite.Run(t, new(GenerateCmdTestSuite))
}

func (suite *GenerateCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *GenerateCmdTestSuite) TestGenerateWritesEveryFile() {
	dir := filepath.Join(suite.tempDir, "config")
	suite.Require().NoError(generate(dir))

	schema, err := os.ReadFile(filepath.Join(dir, schemaName))
	suite.Require().NoError(err)
	suite.True(json.Valid(schema))

	sample, err := os.ReadFile(filepath.Join(dir, sampleConfigName))
	suite.Require().NoError(err)
	suite.Contains(string(sample), getSchemaReference(schemaName))

	config := engine.EmptyConfig()
	suite.Require().NoError(yaml.Unmarshal(sample, &config))
	suite.Equal(strategy.SmaCrossName, config.Strategy)
	suite.Equal(10, config.Params["fast"])
	suite.Equal(30, config.Params["slow"])

	for _, name := range []string{"sma-cross", "bollinger-trail", "vortex-keltner"} {
		content, err := os.ReadFile(filepath.Join(dir, "strategies", name+".json"))
		suite.Require().NoError(err, name)
		suite.True(json.Valid(content), name)
	}
}

func (suite *GenerateCmdTestSuite) TestSampleConfigNotOverwritten() {
	samplePath := filepath.Join(suite.tempDir, "existing-config.yaml")
	suite.Require().NoError(os.WriteFile(samplePath, []byte("existing content"), 0644))

	suite.Require().NoError(generateSampleConfig(engine.EmptyConfig(), samplePath, "test-schema.json"))

	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Equal("existing content", string(content))
}

func (suite *GenerateCmdTestSuite) TestGenerateSchemaFileInvalidPath() {
	blocker := filepath.Join(suite.tempDir, "file")
	suite.Require().NoError(os.WriteFile(blocker, []byte("x"), 0644))

	err := generateSchemaFile("{}", filepath.Join(blocker, "schema.json"))
	suite.Error(err)
	suite.Contains(err.Error(), "failed to")
}

func (suite *GenerateCmdTestSuite) TestValidateSchemaName() {
	suite.NoError(validateSchemaName("schema.json"))
	suite.NoError(validateSchemaName("my-schema-file.json"))

	err := validateSchemaName("")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "schema name cannot be empty")

	err = validateSchemaName("schema.txt")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "must have .json extension")
}

func (suite *GenerateCmdTestSuite) TestDefaultParams() {
	params, err := defaultParams(strategy.VortexKeltnerName)
	suite.Require().NoError(err)
	suite.Equal(50, params["max_bars"])
	suite.Equal(0.01, params["risk_fraction"])

	_, err = defaultParams("unknown")
	suite.Error(err)
}
