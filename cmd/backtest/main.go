package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	engine_types "github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/recorder"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// resolveStrategy picks the strategy named by the flag, falling back to the configuration.
func resolveStrategy(name string, config engine.BacktestEngineV1Config) (strategy.Builtin, error) {
	if name == "" {
		name = config.Strategy
	}

	if name == "" {
		return nil, fmt.Errorf("no strategy given: pass --strategy or set strategy in the config (available: %v)", strategy.Names())
	}

	return strategy.New(name)
}

func readConfig(path string) (string, engine.BacktestEngineV1Config, error) {
	config := engine.EmptyConfig()
	if path == "" {
		return "", config, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(content, &config); err != nil {
		return "", config, fmt.Errorf("failed to parse config: %w", err)
	}

	return string(content), config, nil
}

// runAction runs the selected strategy over every data file and prints the statistics of each run.
func runAction(ctx context.Context, cmd *cli.Command) error {
	raw, config, err := readConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	selected, err := resolveStrategy(cmd.String("strategy"), config)
	if err != nil {
		return err
	}

	backtester := engine.NewBacktestEngineV1()

	if err := backtester.Initialize(raw); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if err := backtester.SetDataPath(cmd.String("data")); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(cmd.String("results")); err != nil {
		return err
	}

	if err := backtester.LoadStrategy(selected); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onRunStart := engine_types.OnRunStartCallback(func(_ string, _ int, dataFilePath string, totalBars int) error {
		bar = progressbar.NewOptions(totalBars,
			progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %s", filepath.Base(dataFilePath))),
			progressbar.OptionShowCount(),
		)

		return nil
	})

	onProcessData := engine_types.OnProcessDataCallback(func(current int, _ int) error {
		return bar.Set(current)
	})

	onRunEnd := engine_types.OnRunEndCallback(func(_ int, dataFilePath string, resultFolderPath string, record *recorder.RunRecord) {
		_ = bar.Finish()

		fmt.Println()
		fmt.Println(renderStats(fmt.Sprintf("%s on %s", record.Strategy().Name, filepath.Base(dataFilePath)), record.Stats()))
		fmt.Println(HelpStyle.Render("results written to " + resultFolderPath))
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	//nolint:exhaustruct // unused callbacks stay nil
	return backtester.Run(ctx, engine_types.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnRunEnd:      &onRunEnd,
	})
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	name := cmd.String("strategy")
	if name == "" {
		schema, err := engine.NewBacktestEngineV1().GetConfigSchema()
		if err != nil {
			return err
		}

		fmt.Println(schema)

		return nil
	}

	selected, err := strategy.New(name)
	if err != nil {
		return err
	}

	schema, err := selected.ParamsSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema for %s: %w", name, err)
	}

	fmt.Println(schema)

	return nil
}

func strategiesAction(_ context.Context, _ *cli.Command) error {
	out, err := renderStrategies()
	if err != nil {
		return err
	}

	fmt.Println(out)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Run event-driven backtests of the built-in strategies",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Backtest a strategy over one or more data files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path or glob of the CSV/Parquet data files (e.g. `data/*.parquet`)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "strategy",
						Aliases:  []string{"s"},
						Usage:    fmt.Sprintf("Built-in strategy to run (one of %v). Defaults to the strategy of the config", strategy.Names()),
						Required: false,
					},
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML run configuration",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "results",
						Aliases:  []string{"r"},
						Usage:    "Directory receiving the result files",
						Value:    "results",
						Required: false,
					},
				},
				Action: runAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the run configuration, or of a strategy's parameters",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "strategy",
						Aliases:  []string{"s"},
						Usage:    "Print the parameter schema of this strategy instead",
						Required: false,
					},
				},
				Action: schemaAction,
			},
			{
				Name:   "strategies",
				Usage:  "List the built-in strategies",
				Action: strategiesAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
