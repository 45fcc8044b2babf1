package datasource

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/parquet-go/parquet-go"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	dir string
	ds  DataSource
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	ds, err := NewDataSource(":memory:", nil)
	suite.Require().NoError(err)
	suite.ds = ds
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	suite.NoError(suite.ds.Close())
}

func (suite *DuckDBDataSourceTestSuite) writeFile(name string, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

const sampleCSV = `Timestamp,Open,High,Low,Close,Volume,Symbol,Funding
2024-01-01 00:30:00,102,104,101,103,12,BTCUSD,0.02
2024-01-01 00:00:00,100,101,99,100.5,10,BTCUSD,0.01
2024-01-01 00:15:00,100.5,103,100,102,11,BTCUSD,
`

func (suite *DuckDBDataSourceTestSuite) TestReadCSV() {
	path := suite.writeFile("btc.csv", sampleCSV)
	suite.Require().NoError(suite.ds.Initialize(path))

	suite.Equal([]string{"Funding"}, suite.ds.AuxColumns())

	bars, err := Load(suite.ds, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.Equal(start, bars[0].Time)
	suite.Equal(start.Add(15*time.Minute), bars[1].Time)
	suite.Equal(start.Add(30*time.Minute), bars[2].Time)

	suite.Equal(100.0, bars[0].Open)
	suite.Equal(101.0, bars[0].High)
	suite.Equal(99.0, bars[0].Low)
	suite.Equal(100.5, bars[0].Close)
	suite.Equal(10.0, bars[0].Volume)
	suite.Equal(0.01, bars[0].Aux["Funding"])
	suite.True(math.IsNaN(bars[1].Aux["Funding"]))
}

func (suite *DuckDBDataSourceTestSuite) TestTimeRangeFilter() {
	path := suite.writeFile("btc.csv", sampleCSV)
	suite.Require().NoError(suite.ds.Initialize(path))

	start := time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC)

	bars, err := Load(suite.ds, optional.Some(start), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Len(bars, 2)
	suite.Equal(start, bars[0].Time)

	count, err := suite.ds.Count(optional.Some(start), optional.Some(start))
	suite.Require().NoError(err)
	suite.Equal(1, count)

	count, err = suite.ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(3, count)
}

func (suite *DuckDBDataSourceTestSuite) TestColumnNamesAreCaseInsensitive() {
	path := suite.writeFile("lower.csv", "date,open,HIGH,low,close,volume\n2024-01-01,1,2,0.5,1.5,3\n2024-01-02,1.5,2,1,1.8,4\n")
	suite.Require().NoError(suite.ds.Initialize(path))
	suite.Empty(suite.ds.AuxColumns())

	bars, err := Load(suite.ds, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 2)
	suite.Equal(2.0, bars[0].High)
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[1].Time)
}

func (suite *DuckDBDataSourceTestSuite) TestMissingColumns() {
	tests := []struct {
		name    string
		content string
	}{
		{"no time column", "when,open,high,low,close,volume\n2024-01-01,1,2,0.5,1.5,3\n"},
		{"no volume column", "time,open,high,low,close\n2024-01-01,1,2,0.5,1.5\n"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			path := suite.writeFile("missing.csv", tc.content)

			err := suite.ds.Initialize(path)
			suite.Error(err)
			suite.Equal(errors.ErrCodeMissingColumn, errors.GetCode(err))
			suite.True(errors.IsValidation(err))
		})
	}
}

func (suite *DuckDBDataSourceTestSuite) TestUnsupportedExtension() {
	err := suite.ds.Initialize(filepath.Join(suite.dir, "bars.json"))
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}

func (suite *DuckDBDataSourceTestSuite) TestReadBeforeInitialize() {
	_, err := Load(suite.ds, optional.None[time.Time](), optional.None[time.Time]())
	suite.Error(err)
	suite.Equal(errors.ErrCodeBacktestNoDatasource, errors.GetCode(err))
}

type parquetBar struct {
	Time   int64   `parquet:"time,timestamp(millisecond)"`
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume float64 `parquet:"volume"`
	Signal int64   `parquet:"signal"`
}

func (suite *DuckDBDataSourceTestSuite) TestReadParquet() {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := []parquetBar{
		{Time: start.UnixMilli(), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1, Signal: 1},
		{Time: start.Add(time.Hour).UnixMilli(), Open: 10.5, High: 12, Low: 10, Close: 11, Volume: 2, Signal: -1},
	}

	path := filepath.Join(suite.dir, "bars.parquet")
	suite.Require().NoError(parquet.WriteFile(path, rows))
	suite.Require().NoError(suite.ds.Initialize(path))

	bars, err := Load(suite.ds, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 2)
	suite.Equal(start.Add(time.Hour), bars[1].Time)
	suite.Equal(12.0, bars[1].High)
	suite.Equal(-1.0, bars[1].Aux["signal"])
}

type InMemoryDataSourceTestSuite struct {
	suite.Suite
}

func TestInMemoryDataSourceSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDataSourceTestSuite))
}

func (suite *InMemoryDataSourceTestSuite) bars() []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := []types.Bar{}

	for i := range 4 {
		out = append(out, types.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: 1,
			Aux:    map[string]float64{"oi": float64(i)},
		})
	}

	return out
}

func (suite *InMemoryDataSourceTestSuite) TestReadAllAndCount() {
	bars := suite.bars()
	ds := NewInMemoryDataSource(bars)
	suite.NoError(ds.Initialize("ignored"))

	all, err := Load(ds, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(bars, all)
	suite.Equal([]string{"oi"}, ds.AuxColumns())

	from := optional.Some(bars[1].Time)
	to := optional.Some(bars[2].Time)

	ranged, err := Load(ds, from, to)
	suite.Require().NoError(err)
	suite.Equal(bars[1:3], ranged)

	count, err := ds.Count(from, to)
	suite.NoError(err)
	suite.Equal(2, count)
	suite.NoError(ds.Close())
}

func (suite *InMemoryDataSourceTestSuite) TestTableIsCopied() {
	bars := suite.bars()
	ds := NewInMemoryDataSource(bars)

	bars[0].Close = 1
	bars[0].Aux["oi"] = 42

	loaded, err := Load(ds, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(100.0, loaded[0].Close)
	suite.Equal(0.0, loaded[0].Aux["oi"])

	loaded[1].Aux["oi"] = 42

	again, err := Load(ds, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(1.0, again[1].Aux["oi"])
}

func (suite *InMemoryDataSourceTestSuite) TestEarlyStop() {
	ds := NewInMemoryDataSource(suite.bars())
	seen := 0

	for _, err := range ds.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)

		seen++
		if seen == 2 {
			break
		}
	}

	suite.Equal(2, seen)
}
