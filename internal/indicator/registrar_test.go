package indicator

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RegistrarTestSuite struct {
	suite.Suite
	store     *series.Store
	registrar *Registrar
}

func TestRegistrarSuite(t *testing.T) {
	suite.Run(t, new(RegistrarTestSuite))
}

func (suite *RegistrarTestSuite) SetupTest() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, 10)

	for i := range bars {
		price := float64(100 + i)
		bars[i] = types.Bar{Time: start.Add(time.Duration(i) * 15 * time.Minute), Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 10}
	}

	store, err := series.NewStore(bars)
	suite.Require().NoError(err)
	suite.store = store
	suite.registrar = NewRegistrar(store)
}

func (suite *RegistrarTestSuite) values(h series.Handle) []float64 {
	s, err := suite.store.Get(h)
	suite.Require().NoError(err)

	return s.Values()
}

func (suite *RegistrarTestSuite) TestRegisterEvaluatesEagerly() {
	handles, err := suite.registrar.Register("sma3", NewMA(), nil, Params{"period": 3})
	suite.Require().NoError(err)
	suite.Len(handles, 1)
	suite.True(suite.store.Ready(handles[0]))

	values := suite.values(handles[0])
	suite.True(math.IsNaN(values[1]))
	suite.InDelta(101.0, values[2], 1e-12)

	h, ok := suite.store.Lookup("sma3")
	suite.True(ok)
	suite.Equal(handles[0], h)
}

func (suite *RegistrarTestSuite) TestMultiOutputRegistration() {
	handles, err := suite.registrar.Register("bb", NewBollingerBands(), nil, Params{"period": 5})
	suite.Require().NoError(err)
	suite.Len(handles, 3)

	for _, name := range []string{"bb.upper", "bb.middle", "bb.lower"} {
		_, ok := suite.store.Lookup(name)
		suite.True(ok, name)
	}

	upper := suite.values(handles[0])
	lower := suite.values(handles[2])
	suite.Greater(upper[9], lower[9])
}

func (suite *RegistrarTestSuite) TestChainedByHandle() {
	sma, err := suite.registrar.Register("sma", NewMA(), nil, Params{"period": 2})
	suite.Require().NoError(err)

	ema, err := suite.registrar.Register("ema_of_sma", NewEMA(), []series.Ref{series.ByHandle(sma[0])}, Params{"period": 2})
	suite.Require().NoError(err)
	suite.True(suite.store.Ready(ema[0]))

	values := suite.values(ema[0])
	suite.True(math.IsNaN(values[1]))
	suite.False(math.IsNaN(values[2]))
}

func (suite *RegistrarTestSuite) TestDeferredRegistrationsResolvedAtSeal() {
	// depends on a series registered afterwards
	late, err := suite.registrar.Register("ema_of_fast", NewEMA(), []series.Ref{series.ByName("fast")}, Params{"period": 2})
	suite.Require().NoError(err)
	suite.False(suite.store.Ready(late[0]))

	fast, err := suite.registrar.Register("fast", NewMA(), nil, Params{"period": 2})
	suite.Require().NoError(err)
	suite.True(suite.store.Ready(fast[0]))

	suite.NoError(suite.registrar.Seal())
	suite.True(suite.store.Ready(late[0]))
	suite.True(suite.store.Frozen())
}

func (suite *RegistrarTestSuite) TestDeferredChainUsesTopologicalOrder() {
	order := []string{}
	tracking := func(name string) Producer {
		return NewFunc(name, []string{"in"}, []string{"value"}, func(inputs [][]float64, _ Params) ([][]float64, error) {
			order = append(order, name)

			return inputs, nil
		})
	}

	_, err := suite.registrar.Register("c", tracking("c"), []series.Ref{series.ByName("b")}, nil)
	suite.Require().NoError(err)
	_, err = suite.registrar.Register("b", tracking("b"), []series.Ref{series.ByName("a")}, nil)
	suite.Require().NoError(err)
	_, err = suite.registrar.Register("a", tracking("a"), []series.Ref{series.ByName("missing_yet")}, nil)
	suite.Require().NoError(err)
	_, err = suite.registrar.Register("missing_yet", NewMA(), nil, Params{"period": 1})
	suite.Require().NoError(err)

	suite.NoError(suite.registrar.Seal())
	suite.Equal([]string{"a", "b", "c"}, order)
}

func (suite *RegistrarTestSuite) TestCycleDetected() {
	_, err := suite.registrar.Register("x", NewEMA(), []series.Ref{series.ByName("y")}, nil)
	suite.Require().NoError(err)
	_, err = suite.registrar.Register("y", NewEMA(), []series.Ref{series.ByName("x")}, nil)
	suite.Require().NoError(err)

	err = suite.registrar.Seal()
	suite.Error(err)
	suite.Equal(errors.ErrCodeIndicatorCycle, errors.GetCode(err))
	suite.Contains(err.Error(), "x")
	suite.Contains(err.Error(), "y")
}

func (suite *RegistrarTestSuite) TestDanglingReference() {
	_, err := suite.registrar.Register("x", NewEMA(), []series.Ref{series.ByName("nope")}, nil)
	suite.Require().NoError(err)

	err = suite.registrar.Seal()
	suite.Equal(errors.ErrCodeIndicatorNotFound, errors.GetCode(err))
}

func (suite *RegistrarTestSuite) TestRegistrationClosedAfterSeal() {
	suite.NoError(suite.registrar.Seal())
	suite.True(suite.registrar.Sealed())
	suite.NoError(suite.registrar.Seal())

	_, err := suite.registrar.Register("late", NewMA(), nil, nil)
	suite.Error(err)
	suite.Equal(errors.ErrCodeRegistrationClosed, errors.GetCode(err))
	suite.True(errors.IsFatal(err))
}

func (suite *RegistrarTestSuite) TestInputArityMismatch() {
	_, err := suite.registrar.Register("atr", NewATR(), []series.Ref{series.ByName(series.Close)}, nil)
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}

func (suite *RegistrarTestSuite) TestOutputArityMismatch() {
	bad := NewFunc("bad", []string{series.Close}, []string{"a", "b"}, func(inputs [][]float64, _ Params) ([][]float64, error) {
		return inputs, nil
	})

	_, err := suite.registrar.Register("bad", bad, nil, nil)
	suite.Equal(errors.ErrCodeIndicatorCalculation, errors.GetCode(err))
}

func (suite *RegistrarTestSuite) TestOutputLengthMismatch() {
	short := Unary("short", series.Close, func(values []float64, _ Params) ([]float64, error) {
		return values[:3], nil
	})

	_, err := suite.registrar.Register("short", short, nil, nil)
	suite.Equal(errors.ErrCodeIndicatorCalculation, errors.GetCode(err))
}

func (suite *RegistrarTestSuite) TestProducerError() {
	failing := Unary("failing", series.Close, func(_ []float64, _ Params) ([]float64, error) {
		return nil, fmt.Errorf("boom")
	})

	_, err := suite.registrar.Register("failing", failing, nil, nil)
	suite.Equal(errors.ErrCodeIndicatorCalculation, errors.GetCode(err))
	suite.Contains(err.Error(), "boom")
}

func (suite *RegistrarTestSuite) TestParamsAreCopied() {
	params := Params{"period": 3}
	_, err := suite.registrar.Register("sma", NewMA(), nil, params)
	suite.Require().NoError(err)

	params["period"] = 5

	regs := suite.registrar.Registrations()
	suite.Len(regs, 1)
	suite.Equal(3, regs[0].Params["period"])
	suite.Equal("sma", regs[0].Name)
}

func (suite *RegistrarTestSuite) TestDefaultName() {
	handles, err := suite.registrar.Register("", NewRSI(), nil, nil)
	suite.Require().NoError(err)

	s, _ := suite.store.Get(handles[0])
	suite.Equal("rsi_0", s.Name())
}

func (suite *RegistrarTestSuite) TestProducerMutationDoesNotLeak() {
	mutating := Unary("mutating", series.Close, func(values []float64, _ Params) ([]float64, error) {
		values[0] = -1

		return values, nil
	})

	_, err := suite.registrar.Register("mutating", mutating, nil, nil)
	suite.Require().NoError(err)

	h, _ := suite.store.Lookup(series.Close)
	suite.Equal(100.0, suite.values(h)[0])
}
