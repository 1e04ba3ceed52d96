package types

type SignalType string

const (
	// SignalTypeBuy is emitted when the short average crosses above the long one
	SignalTypeBuy SignalType = "BUY"
	// SignalTypeSell is emitted when the short average crosses below the long one
	SignalTypeSell SignalType = "SELL"
	// SignalTypeHold means no crossover happened on that day
	SignalTypeHold SignalType = "HOLD"
)

type Signal struct {
	// Date is the trading day the signal is for
	Date Date `json:"date" yaml:"date"`
	// Type is the type of the signal
	Type SignalType `json:"signal" yaml:"signal"`
	// Confidence is a score between 0 and 1
	Confidence float64 `json:"confidence" yaml:"confidence"`
	// Reason is a human readable explanation, e.g. "SMA Crossover at 2035.5"
	Reason string `json:"reason" yaml:"reason"`
}
