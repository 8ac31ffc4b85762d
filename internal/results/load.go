package results

import (
	"encoding/json"
	"os"

	"github.com/rxtech-lab/argo-macd/internal/types"
	"github.com/rxtech-lab/argo-macd/internal/version"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

// Load reads a result file and checks that an engine at engineVersion can
// interpret it.
func Load(path string, engineVersion string) (ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ResultFile{}, errors.Wrapf(errors.ErrCodeResultReadFailed, err, "failed to read %s", path)
	}

	var file ResultFile
	if err := json.Unmarshal(data, &file); err != nil {
		return ResultFile{}, errors.Wrapf(errors.ErrCodeResultReadFailed, err, "failed to decode %s", path)
	}

	if err := version.CheckResultCompatibility(engineVersion, file.EngineVersion); err != nil {
		return ResultFile{}, err
	}

	file.BacktestResult.Trades = file.TradeList()

	return file, nil
}

// LoadResult is Load returning only the backtest result.
func LoadResult(path string, engineVersion string) (types.BacktestResult, error) {
	file, err := Load(path, engineVersion)
	if err != nil {
		return types.BacktestResult{}, err
	}

	return file.BacktestResult, nil
}
