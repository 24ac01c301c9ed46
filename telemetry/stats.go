package telemetry

import (
	"log/slog"
	"sort"

	"github.com/pthm-cable/stablefluid/field"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Dye
	TotalDensity float64 `csv:"total_density"`
	DensityDrift float64 `csv:"density_drift"` // Relative change since the window started
	MaxDensity   float64 `csv:"max_density"`

	// Incompressibility
	MaxDivergence  float64 `csv:"max_divergence"`
	MeanDivergence float64 `csv:"mean_abs_divergence"`

	// Motion
	KineticEnergy float64 `csv:"kinetic_energy"`
	MaxVorticity  float64 `csv:"max_vorticity"`
	SpeedMean     float64 `csv:"speed_mean"`
	SpeedP10      float64 `csv:"speed_p10"`
	SpeedP50      float64 `csv:"speed_p50"`
	SpeedP90      float64 `csv:"speed_p90"`

	// Interaction during window
	ForceTicks int `csv:"force_ticks"`
	Resets     int `csv:"resets"`
	Configures int `csv:"configures"`
}

// LogStats logs the window using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Float64("total_density", s.TotalDensity),
		slog.Float64("density_drift", s.DensityDrift),
		slog.Float64("max_divergence", s.MaxDivergence),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Int("force_ticks", s.ForceTicks),
	)
}

// FieldSample is a read-only view of the grids measured at a window boundary.
type FieldSample struct {
	Velocity   *field.Vector
	Density    *field.Scalar
	Divergence *field.Scalar
	Vorticity  *field.Scalar
}

// FieldStats are the instantaneous measurements of one FieldSample.
type FieldStats struct {
	TotalDensity   float64
	MaxDensity     float64
	MaxDivergence  float64
	MeanDivergence float64
	KineticEnergy  float64
	MaxVorticity   float64
	SpeedMean      float64
	SpeedP10       float64
	SpeedP50       float64
	SpeedP90       float64
}

// Measure computes field statistics. speeds is scratch space reused across
// calls and returned for the caller to keep.
func Measure(fs FieldSample, speeds []float64) (FieldStats, []float64) {
	var st FieldStats
	if fs.Density != nil {
		st.TotalDensity = fs.Density.Sum()
		st.MaxDensity = float64(fs.Density.MaxAbs())
	}
	if fs.Divergence != nil {
		st.MaxDivergence, st.MeanDivergence = InteriorDivergence(fs.Divergence)
	}
	if fs.Vorticity != nil {
		st.MaxVorticity = float64(fs.Vorticity.MaxAbs())
	}
	if fs.Velocity != nil {
		st.KineticEnergy = fs.Velocity.KineticEnergy()
		speeds = fs.Velocity.Speeds(speeds)
		st.SpeedMean, st.SpeedP10, st.SpeedP50, st.SpeedP90 = ComputeDistribution(speeds)
	}
	return st, speeds
}

// InteriorDivergence returns the max and mean absolute divergence over
// non-border cells. Border cells are overwritten by the wall condition and
// carry no incompressibility guarantee.
func InteriorDivergence(div *field.Scalar) (maxAbs, meanAbs float64) {
	if div.W < 3 || div.H < 3 {
		return 0, 0
	}
	var sum float64
	for y := 1; y < div.H-1; y++ {
		row := div.Data[y*div.W+1 : y*div.W+div.W-1]
		for _, v := range row {
			a := float64(v)
			if a < 0 {
				a = -a
			}
			sum += a
			if a > maxAbs {
				maxAbs = a
			}
		}
	}
	return maxAbs, sum / float64((div.W-2)*(div.H-2))
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean and percentiles. values is sorted in place.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sort.Float64s(values)

	p10 = Percentile(values, 0.10)
	p50 = Percentile(values, 0.50)
	p90 = Percentile(values, 0.90)

	return mean, p10, p50, p90
}
