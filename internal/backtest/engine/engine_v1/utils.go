package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

// getResultFolder returns <root>/<strategy>/[<start>_<end>/]<data file name> for a run.
func getResultFolder(root string, strategyName string, dataPath string, config BacktestEngineV1Config) string {
	strategyFolder := filepath.Join(root, strategyName)

	// Create data folder with time range if specified
	dataFolder := strategyFolder

	if config.StartTime.IsSome() || config.EndTime.IsSome() {
		startTimeStr := "all"
		endTimeStr := "all"

		if config.StartTime.IsSome() {
			startTimeStr = config.StartTime.Unwrap().Format("20060102")
		}

		if config.EndTime.IsSome() {
			endTimeStr = config.EndTime.Unwrap().Format("20060102")
		}

		dataFolder = filepath.Join(strategyFolder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
	}

	// Add data file name as the final folder
	dataFileName := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))

	return filepath.Join(dataFolder, dataFileName)
}
