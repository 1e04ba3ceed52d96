package types

// Bar is one trading day of open/high/low/close/volume data for an instrument.
// The CSV tags match the column layout of the persisted files.
type Bar struct {
	Date   Date    `csv:"Date" json:"date" yaml:"date"`
	Open   float64 `csv:"Open" json:"open" yaml:"open"`
	High   float64 `csv:"High" json:"high" yaml:"high"`
	Low    float64 `csv:"Low" json:"low" yaml:"low"`
	Close  float64 `csv:"Close" json:"close" yaml:"close"`
	Volume float64 `csv:"Volume" json:"volume" yaml:"volume"`
}

// BarColumns is the header row written for bar files.
var BarColumns = []string{"Date", "Open", "High", "Low", "Close", "Volume"}
