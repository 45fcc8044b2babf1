package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/recorder"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/slippage"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/writers"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1 struct {
	config            BacktestEngineV1Config
	strategies        []runtime.Strategy
	dataPaths         []string
	resultsFolder     string
	log               *logger.Logger
	indicatorRegistry indicator.IndicatorRegistry
	datasource        datasource.DataSource
	cache             cache.Cache
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:            EmptyConfig(),
		strategies:        nil,
		dataPaths:         nil,
		resultsFolder:     "",
		log:               logger.NewNopLogger(),
		indicatorRegistry: indicator.NewDefaultRegistry(),
		datasource:        nil,
		cache:             cache.NewState(),
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	// parse the config
	b.config = EmptyConfig()
	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest configuration", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	// initialize the logger
	log, err := logger.NewLoggerWithLevel(b.config.LogLevel)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", err)
	}

	b.log = log
	b.log.Debug("Backtest engine initialized",
		zap.Float64("initial_cash", b.config.InitialCash),
		zap.String("broker", string(b.config.Broker)),
	)

	return nil
}

// LoadStrategy implements engine.Engine. Strategies that declare an engine version are
// checked against the running engine.
func (b *BacktestEngineV1) LoadStrategy(strategy runtime.Strategy) error {
	if versioned, ok := strategy.(runtime.VersionedStrategy); ok {
		if err := version.CheckVersionCompatibility(version.Version, versioned.EngineVersion()); err != nil {
			b.log.Error("Strategy is not compatible with the engine",
				zap.String("strategy", strategy.Name()),
				zap.String("engine_version", version.Version),
				zap.String("strategy_version", versioned.EngineVersion()),
			)

			return err
		}
	}

	b.strategies = append(b.strategies, strategy)
	b.log.Debug("Strategy loaded",
		zap.String("strategy", strategy.Name()),
		zap.Int("total_strategies", len(b.strategies)),
	)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set data path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "invalid data path %s", path)
	}

	// Convert all paths to absolute paths
	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "failed to resolve %s", file)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.log.Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	schema, err := b.config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	if err := b.preRunCheck(); err != nil {
		return err
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(b.strategies), len(b.dataPaths)); err != nil {
			return fmt.Errorf("backtest start callback failed: %w", err)
		}
	}

	if err := os.MkdirAll(b.resultsFolder, 0o755); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to create results folder %s", b.resultsFolder)
	}

	for strategyIndex, strategy := range b.strategies {
		if callbacks.OnStrategyStart != nil {
			if err := (*callbacks.OnStrategyStart)(strategyIndex, strategy.Name(), len(b.strategies)); err != nil {
				return fmt.Errorf("strategy start callback failed: %w", err)
			}
		}

		for dataIndex, dataPath := range b.dataPaths {
			if err := b.runFile(ctx, strategy, dataIndex, dataPath, callbacks); err != nil {
				return err
			}
		}

		if callbacks.OnStrategyEnd != nil {
			(*callbacks.OnStrategyEnd)(strategyIndex, strategy.Name())
		}
	}

	return nil
}

// runFile runs one strategy over one data file and writes its results.
func (b *BacktestEngineV1) runFile(
	ctx context.Context,
	strategy runtime.Strategy,
	dataIndex int,
	dataPath string,
	callbacks engine.LifecycleCallbacks,
) error {
	// Initialize the data source with the given data path
	if err := b.datasource.Initialize(dataPath); err != nil {
		return fmt.Errorf("failed to initialize data source: %w", err)
	}

	bars, err := datasource.Load(b.datasource, b.config.StartTime, b.config.EndTime)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	runID := uuid.New().String()
	resultFolderPath := getResultFolder(b.resultsFolder, strategy.Name(), dataPath, b.config)

	b.log.Debug("Running strategy",
		zap.String("run_id", runID),
		zap.String("strategy", strategy.Name()),
		zap.String("data", dataPath),
		zap.String("result", resultFolderPath),
	)

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, dataIndex, dataPath, len(bars)); err != nil {
			return fmt.Errorf("run start callback failed: %w", err)
		}
	}

	var onProcessData OnBar
	if callbacks.OnProcessData != nil {
		onProcessData = OnBar(*callbacks.OnProcessData)
	}

	record, err := runBacktest(ctx, run{
		bars:     bars,
		strategy: strategy,
		config:   b.config,
		registry: b.indicatorRegistry,
		state:    b.cache,
		log:      b.log,
		onBar:    onProcessData,
	})
	if err != nil {
		return err
	}

	if err := writers.WriteRecord(resultFolderPath, record); err != nil {
		return err
	}

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(dataIndex, dataPath, resultFolderPath, record)
	}

	return nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if len(b.strategies) == 0 {
		b.log.Error("No strategies loaded")

		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies loaded")
	}

	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeBacktestDataPathError, "no data paths loaded")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestConfigError, "no results folder set")
	}

	if b.datasource == nil {
		ds, err := datasource.NewDataSource(":memory:", b.log)
		if err != nil {
			return err
		}

		b.datasource = ds
	}

	return nil
}

// OnBar is called after bar current-1 of total has been processed.
type OnBar func(current int, total int) error

// Backtest runs strategy over bars and returns the frozen run record. Bars outside the
// configured start and end times are dropped before the run. A nil log discards engine output.
func Backtest(
	ctx context.Context,
	bars []types.Bar,
	strategy runtime.Strategy,
	config BacktestEngineV1Config,
	log *logger.Logger,
) (*recorder.RunRecord, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	if versioned, ok := strategy.(runtime.VersionedStrategy); ok {
		if err := version.CheckVersionCompatibility(version.Version, versioned.EngineVersion()); err != nil {
			return nil, err
		}
	}

	table, err := datasource.Load(datasource.NewInMemoryDataSource(bars), config.StartTime, config.EndTime)
	if err != nil {
		return nil, err
	}

	return runBacktest(ctx, run{
		bars:     table,
		strategy: strategy,
		config:   config,
		registry: indicator.NewDefaultRegistry(),
		state:    cache.NewState(),
		log:      log,
		onBar:    nil,
	})
}

// run holds the inputs of a single backtest.
type run struct {
	bars     []types.Bar
	strategy runtime.Strategy
	config   BacktestEngineV1Config
	registry indicator.IndicatorRegistry
	state    cache.Cache
	log      *logger.Logger
	onBar    OnBar
}

func runBacktest(ctx context.Context, r run) (*recorder.RunRecord, error) {
	store, err := series.NewStore(r.bars)
	if err != nil {
		return nil, err
	}

	broker := NewBacktestBroker(BrokerConfig{
		InitialCash:     r.config.InitialCash,
		Margin:          r.config.Margin,
		ExclusiveOrders: r.config.ExclusiveOrders,
		Commission:      commission_fee.GetCommissionFeeHandler(r.config.Broker, r.config.Commission),
		Slippage:        slippage.GetSlippageHandler(r.config.Slippage),
	}, r.log)

	h := newHarness(r.strategy, store, broker, r.registry, r.config.Params, r.state, r.log)
	rec := recorder.NewRecorder(settingsOf(r.config), strategyInfo(r.strategy, r.config.Params))
	rec.Attach(r.strategy)
	total := store.Len()

	r.log.Info("Backtest started",
		zap.String("strategy", r.strategy.Name()),
		zap.Int("bars", total),
		zap.Time("start", store.Time(0)),
		zap.Time("end", store.Time(total-1)),
	)

	if err := h.Init(); err != nil {
		return nil, err
	}

	for t := range total {
		if err := ctx.Err(); err != nil {
			r.log.Info("Backtest cancelled", zap.Int("bar", t))

			return nil, fmt.Errorf("backtest cancelled before bar %d: %w", t, err)
		}

		bar := store.Bar(t, h.auxNames)
		broker.ProcessBar(t, bar)

		if err := h.Next(t); err != nil {
			r.log.Error("Backtest aborted",
				zap.String("strategy", r.strategy.Name()),
				zap.Int("bar", t),
				zap.Error(err),
			)

			return nil, err
		}

		rec.RecordBar(bar, broker.EquityPoint())

		if r.onBar != nil {
			if err := r.onBar(t+1, total); err != nil {
				return nil, errors.Wrapf(errors.ErrCodeCallbackFailed, err, "process data callback failed at bar %d", t)
			}
		}
	}

	broker.Liquidate()

	account := broker.Account()
	record := rec.Finalize(
		broker.EquityPoint(),
		broker.Trades(),
		broker.Rejections(),
		h.Logs(),
		recorder.Totals{Fees: account.TotalFees, Slippage: account.TotalSlippage},
	)

	stats := record.Stats()
	r.log.Info("Backtest finished",
		zap.String("strategy", r.strategy.Name()),
		zap.Float64("final_equity", stats.FinalEquity),
		zap.Int("trades", stats.NumberOfTrades),
		zap.Int("rejections", stats.RejectedOrders),
	)

	return record, nil
}

func settingsOf(config BacktestEngineV1Config) recorder.Settings {
	return recorder.Settings{
		InitialCash:     config.InitialCash,
		Commission:      config.Commission,
		Slippage:        config.Slippage,
		Margin:          config.Margin,
		ExclusiveOrders: config.ExclusiveOrders,
		Broker:          string(config.Broker),
		BarsPerYear:     config.BarsPerYear,
		Params:          config.Params,
	}
}

func strategyInfo(strategy runtime.Strategy, params map[string]any) types.StrategyInfo {
	info := types.StrategyInfo{
		Name:    strategy.Name(),
		Version: "",
		Params:  params,
	}

	if versioned, ok := strategy.(runtime.VersionedStrategy); ok {
		info.Version = versioned.EngineVersion()
	}

	return info
}
