package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const (
	DefaultInitialCash = 1_000_000.0
	DefaultMargin      = 1.0
	DefaultLogLevel    = "info"
)

type BacktestEngineV1Config struct {
	InitialCash     float64                    `yaml:"initial_cash" json:"initial_cash" validate:"gt=0" jsonschema:"title=Initial Cash,description=Starting cash for the backtest,minimum=0,default=1000000"`
	Commission      float64                    `yaml:"commission" json:"commission" validate:"gte=0,lt=1" jsonschema:"title=Commission,description=Commission as a fraction of fill notional (percentage broker),minimum=0,default=0"`
	Slippage        float64                    `yaml:"slippage" json:"slippage" validate:"gte=0,lt=1" jsonschema:"title=Slippage,description=Adverse slippage as a fraction of the fill price,minimum=0,default=0"`
	ExclusiveOrders bool                       `yaml:"exclusive_orders" json:"exclusive_orders" jsonschema:"title=Exclusive Orders,description=Close the open position before every new entry,default=false"`
	Margin          float64                    `yaml:"margin" json:"margin" validate:"gt=0" jsonschema:"title=Margin,description=Fraction of notional locked by open exposure,default=1"`
	Broker          commission_fee.Broker      `yaml:"broker" json:"broker" validate:"omitempty,oneof=percentage interactive_broker zero_commission" jsonschema:"title=Broker,description=The broker to use for commission calculations"`
	BarsPerYear     float64                    `yaml:"bars_per_year" json:"bars_per_year" validate:"gte=0" jsonschema:"title=Bars Per Year,description=Annualisation factor; 0 infers it from the median bar interval,minimum=0"`
	StartTime       optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime         optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Strategy        string                     `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=Name of a built-in strategy"`
	Params          map[string]any             `yaml:"params" json:"params" jsonschema:"title=Params,description=Strategy parameters overriding the strategy defaults"`
	LogLevel        string                     `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn error" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// yamlConfig mirrors BacktestEngineV1Config with pointers so omitted keys keep their defaults.
type yamlConfig struct {
	InitialCash     *float64              `yaml:"initial_cash"`
	Commission      *float64              `yaml:"commission"`
	Slippage        *float64              `yaml:"slippage"`
	ExclusiveOrders *bool                 `yaml:"exclusive_orders"`
	Margin          *float64              `yaml:"margin"`
	Broker          commission_fee.Broker `yaml:"broker,omitempty"`
	BarsPerYear     *float64              `yaml:"bars_per_year"`
	StartTime       *time.Time            `yaml:"start_time,omitempty"`
	EndTime         *time.Time            `yaml:"end_time,omitempty"`
	Strategy        string                `yaml:"strategy,omitempty"`
	Params          map[string]any        `yaml:"params,omitempty"`
	LogLevel        string                `yaml:"log_level,omitempty"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Keys that are absent keep the values of EmptyConfig.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var config yamlConfig
	if err := unmarshal(&config); err != nil {
		return err
	}

	*c = EmptyConfig()

	if config.InitialCash != nil {
		c.InitialCash = *config.InitialCash
	}

	if config.Commission != nil {
		c.Commission = *config.Commission
	}

	if config.Slippage != nil {
		c.Slippage = *config.Slippage
	}

	if config.ExclusiveOrders != nil {
		c.ExclusiveOrders = *config.ExclusiveOrders
	}

	if config.Margin != nil {
		c.Margin = *config.Margin
	}

	if config.Broker != "" {
		c.Broker = config.Broker
	}

	if config.BarsPerYear != nil {
		c.BarsPerYear = *config.BarsPerYear
	}

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	c.Strategy = config.Strategy

	if config.Params != nil {
		c.Params = config.Params
	}

	if config.LogLevel != "" {
		c.LogLevel = config.LogLevel
	}

	return nil
}

// MarshalYAML writes optional times as plain timestamps.
func (c BacktestEngineV1Config) MarshalYAML() (interface{}, error) {
	config := yamlConfig{
		InitialCash:     &c.InitialCash,
		Commission:      &c.Commission,
		Slippage:        &c.Slippage,
		ExclusiveOrders: &c.ExclusiveOrders,
		Margin:          &c.Margin,
		Broker:          c.Broker,
		BarsPerYear:     &c.BarsPerYear,
		StartTime:       nil,
		EndTime:         nil,
		Strategy:        c.Strategy,
		Params:          c.Params,
		LogLevel:        c.LogLevel,
	}

	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		config.StartTime = &start
	}

	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		config.EndTime = &end
	}

	return config, nil
}

// Validate checks value ranges and the time window.
func (c *BacktestEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest configuration", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.StartTime.Unwrap().Before(c.EndTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "start_time %s must be before end_time %s",
			c.StartTime.Unwrap().Format(time.RFC3339), c.EndTime.Unwrap().Format(time.RFC3339))
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	// Generate schema from BacktestEngineV1Config struct
	schema := reflector.Reflect(c)

	// Set schema metadata
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// TestConfig returns a small-account configuration for tests.
func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.InitialCash = 10000
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCash:     DefaultInitialCash,
		Commission:      0,
		Slippage:        0,
		ExclusiveOrders: false,
		Margin:          DefaultMargin,
		Broker:          commission_fee.BrokerPercentage,
		BarsPerYear:     0,
		StartTime:       optional.None[time.Time](),
		EndTime:         optional.None[time.Time](),
		Strategy:        "",
		Params:          map[string]any{},
		LogLevel:        DefaultLogLevel,
	}
}
