// Package fixedpoint is a reference backend: a compiler pass that lowers
// elementwise and reduction nodes to programs executed by an external
// fixed-point Runtime. Operands are serialized to scaled integers and results
// deserialized back into float tensors.
package fixedpoint

import "math"

// Capability tags the operators this backend installs.
const Capability = "fixedpoint"

// Config holds the numeric format and the runtime of the backend.
type Config struct {
	// FractionBits is the number of fractional bits: x is stored as
	// round(x * 2^FractionBits).
	FractionBits uint
	// Min and Max clamp every encoded value and every arithmetic result.
	Min, Max int64
	// Runtime executes lowered programs. Nil means HostRuntime.
	Runtime Runtime
}

// DefaultConfig returns a 32.32 format saturating at the int64 range,
// executed in-process.
func DefaultConfig() Config {
	return Config{
		FractionBits: 32,
		Min:          math.MinInt64,
		Max:          math.MaxInt64,
		Runtime:      HostRuntime{},
	}
}

// Format is the numeric part of a Config, shipped with every Program.
type Format struct {
	FractionBits uint
	Min, Max     int64
}

func (c Config) format() Format {
	return Format{FractionBits: c.FractionBits, Min: c.Min, Max: c.Max}
}

func (c Config) runtime() Runtime {
	if c.Runtime == nil {
		return HostRuntime{}
	}
	return c.Runtime
}
