package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(1_000_000.0, config.InitialCash)
	suite.Equal(0.0, config.Commission)
	suite.Equal(0.0, config.Slippage)
	suite.False(config.ExclusiveOrders)
	suite.Equal(1.0, config.Margin)
	suite.Equal(commission_fee.BrokerPercentage, config.Broker)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.Equal("info", config.LogLevel)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestTestConfig() {
	startTime := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	broker := commission_fee.BrokerZero

	config := TestConfig(startTime, endTime, broker)

	suite.Equal(10000.0, config.InitialCash)
	suite.Equal(broker, config.Broker)
	suite.Equal(startTime, config.StartTime.Unwrap())
	suite.Equal(endTime, config.EndTime.Unwrap())
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	var result map[string]interface{}
	err = json.Unmarshal([]byte(schemaJSON), &result)
	suite.NoError(err)
	suite.Equal("backtest-engine-v1-config", result["title"])

	properties, ok := result["properties"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Contains(properties, "initial_cash")
	suite.Contains(properties, "exclusive_orders")
	suite.Contains(properties, "start_time")

	startTime, ok := properties["start_time"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Equal("date-time", startTime["format"])
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLComplete() {
	yamlData := `
initial_cash: 50000
commission: 0.001
slippage: 0.0005
exclusive_orders: true
margin: 0.5
broker: interactive_broker
bars_per_year: 35040
start_time: 2023-01-01T00:00:00Z
end_time: 2023-12-31T00:00:00Z
strategy: sma_cross
params:
  fast: 10
  slow: 30
log_level: debug
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.Equal(50000.0, config.InitialCash)
	suite.Equal(0.001, config.Commission)
	suite.Equal(0.0005, config.Slippage)
	suite.True(config.ExclusiveOrders)
	suite.Equal(0.5, config.Margin)
	suite.Equal(commission_fee.BrokerInteractiveBroker, config.Broker)
	suite.Equal(35040.0, config.BarsPerYear)
	suite.Equal("sma_cross", config.Strategy)
	suite.Equal(10, config.Params["fast"])
	suite.Equal("debug", config.LogLevel)

	startTime := config.StartTime.Unwrap()
	suite.Equal(2023, startTime.Year())
	suite.Equal(time.January, startTime.Month())

	endTime := config.EndTime.Unwrap()
	suite.Equal(time.December, endTime.Month())
	suite.Equal(31, endTime.Day())
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLKeepsDefaults() {
	yamlData := `
commission: 0.002
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.Equal(1_000_000.0, config.InitialCash)
	suite.Equal(0.002, config.Commission)
	suite.Equal(1.0, config.Margin)
	suite.Equal(commission_fee.BrokerPercentage, config.Broker)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.NotNil(config.Params)
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLOnlyStartTime() {
	yamlData := `
start_time: 2024-06-01T00:00:00Z
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.True(config.StartTime.IsSome())
	suite.True(config.EndTime.IsNone())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLInvalid() {
	yamlData := `
initial_cash: not_a_number
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestMarshalRoundTrip() {
	config := EmptyConfig()
	config.StartTime = optional.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	config.Strategy = "sma_cross"

	data, err := yaml.Marshal(config)
	suite.Require().NoError(err)
	suite.Contains(string(data), "start_time: 2024-01-01T00:00:00Z")
	suite.NotContains(string(data), "end_time")

	var decoded BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal(data, &decoded))
	suite.Equal(config.StartTime.Unwrap(), decoded.StartTime.Unwrap())
	suite.True(decoded.EndTime.IsNone())
	suite.Equal("sma_cross", decoded.Strategy)
}

func (suite *ConfigTestSuite) TestValidate() {
	tests := []struct {
		name   string
		modify func(c *BacktestEngineV1Config)
	}{
		{"zero cash", func(c *BacktestEngineV1Config) { c.InitialCash = 0 }},
		{"negative commission", func(c *BacktestEngineV1Config) { c.Commission = -0.1 }},
		{"slippage of one", func(c *BacktestEngineV1Config) { c.Slippage = 1 }},
		{"zero margin", func(c *BacktestEngineV1Config) { c.Margin = 0 }},
		{"unknown broker", func(c *BacktestEngineV1Config) { c.Broker = "acme" }},
		{"unknown log level", func(c *BacktestEngineV1Config) { c.LogLevel = "verbose" }},
		{"inverted window", func(c *BacktestEngineV1Config) {
			c.StartTime = optional.Some(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
			c.EndTime = optional.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := EmptyConfig()
			tc.modify(&config)

			err := config.Validate()
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
			suite.True(errors.IsValidation(err))
		})
	}
}
