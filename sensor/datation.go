package sensor

// LinearDatation is the line <-> date model for a push-broom sensor: line
// number grows linearly with acquisition time at a fixed line rate.
//
//	date(line) = t0 + (line - line0) / rate
type LinearDatation struct {
	// T0 is the acquisition date of LineZero, in seconds in the sensor's
	// time scale.
	T0 float64
	// LineZero is the reference line number for T0.
	LineZero float64
	// Rate is the line acquisition frequency, in lines per second.
	Rate float64
}

// GetDate returns the acquisition date of the given (real-valued) line.
func (d LinearDatation) GetDate(line float64) float64 {
	return d.T0 + (line-d.LineZero)/d.Rate
}

// GetLine returns the (real-valued) line acquired at date.
func (d LinearDatation) GetLine(date float64) float64 {
	return d.LineZero + (date-d.T0)*d.Rate
}

// GetRate returns the instantaneous line rate, in lines per second. Line is
// accepted (rather than ignored) so that a future non-linear datation model
// can implement the same interface.
func (d LinearDatation) GetRate(line float64) float64 {
	return d.Rate
}

// Datation is the line <-> date model a LineSensor delegates to. LinearDatation
// is the only implementation the core ships; the interface exists so a host
// can plug in a non-uniform (e.g. spline-fit) datation model without
// touching LineSensor itself.
type Datation interface {
	GetDate(line float64) float64
	GetLine(date float64) float64
	GetRate(line float64) float64
}
