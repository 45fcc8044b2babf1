package engine

import (
	"context"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/recorder"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalStrategies int, totalDataFiles int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnStrategyStartCallback is called when a strategy iteration begins.
type OnStrategyStartCallback func(strategyIndex int, strategyName string, totalStrategies int) error

// OnStrategyEndCallback is called when a strategy iteration ends.
type OnStrategyEndCallback func(strategyIndex int, strategyName string)

// OnRunStartCallback is called when the run of one strategy over one data file begins.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, dataFileIndex int, dataFilePath string, totalBars int) error

// OnRunEndCallback is called when a run completes. record is the frozen result of the run.
type OnRunEndCallback func(dataFileIndex int, dataFilePath string, resultFolderPath string, record *recorder.RunRecord)

// OnProcessDataCallback is called after each bar is processed.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnStrategyStart *OnStrategyStartCallback
	OnStrategyEnd   *OnStrategyEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML run configuration.
	Initialize(config string) error
	// SetDataPath sets the path to the market data file. Accepts glob patterns for batch
	// loading (e.g., "data/*.parquet"); every matching file is a separate run.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// The results folder will be structured as: <strategy_name>/[<start>_<end>/]<data_file>
	SetResultsFolder(folder string) error
	// LoadStrategy loads a trading strategy. Could be called multiple times to load multiple strategies.
	LoadStrategy(strategy runtime.Strategy) error
	// Run runs every loaded strategy over every data file.
	// The context can be used to cancel the backtest operation.
	// Use LifecycleCallbacks to receive notifications at different phases of the backtest.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
