package commission_fee

type CommissionFee interface {
	// Calculate the commission fee for a fill of quantity units at price and returns the fee in quote currency
	Calculate(quantity float64, price float64) float64
}

type Broker string

const (
	BrokerPercentage        Broker = "percentage"
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerPercentage,
	BrokerInteractiveBroker,
	BrokerZero,
}

// GetCommissionFeeHandler returns the fee model of the broker. rate is only used by the
// percentage broker.
func GetCommissionFeeHandler(broker Broker, rate float64) CommissionFee {
	switch broker {
	case BrokerPercentage:
		if rate <= 0 {
			return NewZeroCommissionFee()
		}

		return NewPercentageCommissionFee(rate)
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
