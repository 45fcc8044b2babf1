package series

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	bars []types.Bar
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.bars = []types.Bar{
		{Time: start, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1, Aux: map[string]float64{"vix": 20}},
		{Time: start.Add(15 * time.Minute), Open: 102, High: 104, Low: 101, Close: 103, Volume: 2},
		{Time: start.Add(30 * time.Minute), Open: 103, High: 105, Low: 102, Close: 104, Volume: 3, Aux: map[string]float64{"vix": 22}},
	}
}

func (suite *StoreTestSuite) TestNewStoreRegistersColumns() {
	store, err := NewStore(suite.bars)
	suite.Require().NoError(err)

	suite.Equal(3, store.Len())
	suite.Equal([]string{Open, High, Low, Close, Volume, "vix"}, store.Names())

	h, ok := store.Lookup(Close)
	suite.True(ok)
	s, err := store.Get(h)
	suite.NoError(err)
	suite.Equal([]float64{100, 103, 104}, s.Values())

	h, ok = store.Lookup("vix")
	suite.True(ok)
	s, _ = store.Get(h)
	values := s.Values()
	suite.Equal(20.0, values[0])
	suite.True(math.IsNaN(values[1]))
	suite.Equal(22.0, values[2])
}

func (suite *StoreTestSuite) TestNewStoreRejectsEmptyTable() {
	_, err := NewStore(nil)
	suite.Error(err)
	suite.Equal(errors.ErrCodeEmptyData, errors.GetCode(err))
}

func (suite *StoreTestSuite) TestNewStoreRejectsNonMonotoneTime() {
	suite.bars[2].Time = suite.bars[1].Time

	_, err := NewStore(suite.bars)
	suite.Error(err)
	suite.Equal(errors.ErrCodeNonMonotoneTime, errors.GetCode(err))
	suite.Equal(2, errors.GetBar(err))
	suite.True(errors.IsValidation(err))
}

func (suite *StoreTestSuite) TestNewStoreRejectsInvalidBar() {
	suite.bars[1].Low = 105

	_, err := NewStore(suite.bars)
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidBar, errors.GetCode(err))
	suite.Equal(1, errors.GetBar(err))
}

func (suite *StoreTestSuite) TestAddStoresDefensiveCopy() {
	store, err := NewStore(suite.bars)
	suite.Require().NoError(err)

	input := []float64{1, 2, 3}
	h, err := store.Add("custom", input)
	suite.Require().NoError(err)

	input[0] = 99
	s, _ := store.Get(h)
	suite.Equal([]float64{1, 2, 3}, s.Values())

	// returned slices are copies as well
	out := s.Values()
	out[1] = 42
	suite.Equal([]float64{1, 2, 3}, s.Values())
}

func (suite *StoreTestSuite) TestAddValidation() {
	store, err := NewStore(suite.bars)
	suite.Require().NoError(err)

	_, err = store.Add("short", []float64{1})
	suite.Equal(errors.ErrCodeIndicatorCalculation, errors.GetCode(err))

	_, err = store.Add(Close, []float64{1, 2, 3})
	suite.Equal(errors.ErrCodeIndicatorAlreadyExists, errors.GetCode(err))

	h, err := store.Add("", []float64{1, 2, 3})
	suite.NoError(err)
	s, _ := store.Get(h)
	suite.Equal("series_6", s.Name())
}

func (suite *StoreTestSuite) TestFreeze() {
	store, err := NewStore(suite.bars)
	suite.Require().NoError(err)

	store.Freeze()
	suite.True(store.Frozen())

	_, err = store.Add("late", []float64{1, 2, 3})
	suite.Equal(errors.ErrCodeRegistrationClosed, errors.GetCode(err))
}

func (suite *StoreTestSuite) TestResolve() {
	store, err := NewStore(suite.bars)
	suite.Require().NoError(err)

	h, err := store.Resolve(ByName(High))
	suite.NoError(err)
	suite.Equal(Handle(1), h)

	h, err = store.Resolve(ByHandle(3))
	suite.NoError(err)
	suite.Equal(Handle(3), h)

	_, err = store.Resolve(ByName("missing"))
	suite.Equal(errors.ErrCodeSeriesNotFound, errors.GetCode(err))

	_, err = store.Resolve(ByHandle(99))
	suite.Equal(errors.ErrCodeSeriesNotFound, errors.GetCode(err))
}

func (suite *StoreTestSuite) TestBar() {
	store, err := NewStore(suite.bars)
	suite.Require().NoError(err)

	bar := store.Bar(2, []string{"vix"})
	suite.Equal(suite.bars[2].Time, bar.Time)
	suite.Equal(103.0, bar.Open)
	suite.Equal(104.0, bar.Close)
	suite.Equal(22.0, bar.Aux["vix"])

	suite.Nil(store.Bar(0, nil).Aux)
}

func (suite *StoreTestSuite) TestWindowBounds() {
	store, err := NewStore(suite.bars)
	suite.Require().NoError(err)

	_, err = store.Window(3)
	suite.Equal(errors.ErrCodeIndicatorOutOfBounds, errors.GetCode(err))

	w, err := store.Window(1)
	suite.NoError(err)
	suite.Equal(1, w.T())
	suite.Equal(suite.bars[1].Time, w.Time())
}

func (suite *StoreTestSuite) TestReserveAndFill() {
	store, err := NewStore(suite.bars)
	suite.Require().NoError(err)

	h, err := store.Reserve("later")
	suite.Require().NoError(err)
	suite.False(store.Ready(h))

	w, _ := store.Window(0)
	_, err = w.View(h)
	suite.Equal(errors.ErrCodeSeriesNotFound, errors.GetCode(err))

	suite.Error(store.Fill(h, []float64{1}))
	suite.NoError(store.Fill(h, []float64{1, 2, 3}))
	suite.True(store.Ready(h))
	suite.Equal(errors.ErrCodeIndicatorAlreadyExists, errors.GetCode(store.Fill(h, []float64{1, 2, 3})))

	v, err := w.View(h)
	suite.NoError(err)
	suite.Equal(1.0, v.Last(1))
}
