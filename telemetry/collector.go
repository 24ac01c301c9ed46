package telemetry

// Collector accumulates interaction events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick  int32
	startDensity     float64
	haveStartDensity bool

	// Event counters for current window
	forceTicks int
	resets     int
	configures int

	speeds []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordForce records a tick that carried an active force event.
func (c *Collector) RecordForce() {
	c.forceTicks++
}

// RecordReset records a field reset. The density baseline restarts because
// a reset is not drift.
func (c *Collector) RecordReset(tick int32) {
	c.resets++
	c.haveStartDensity = false
	c.windowStartTick = tick
}

// RecordConfigure records an applied solver reconfiguration.
func (c *Collector) RecordConfigure() {
	c.configures++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the current fields and resets counters
// for the next window.
func (c *Collector) Flush(currentTick int32, fields FieldSample) WindowStats {
	var fst FieldStats
	fst, c.speeds = Measure(fields, c.speeds)

	var drift float64
	if c.haveStartDensity && c.startDensity != 0 {
		drift = (fst.TotalDensity - c.startDensity) / c.startDensity
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		TotalDensity: fst.TotalDensity,
		DensityDrift: drift,
		MaxDensity:   fst.MaxDensity,

		MaxDivergence:  fst.MaxDivergence,
		MeanDivergence: fst.MeanDivergence,

		KineticEnergy: fst.KineticEnergy,
		MaxVorticity:  fst.MaxVorticity,
		SpeedMean:     fst.SpeedMean,
		SpeedP10:      fst.SpeedP10,
		SpeedP50:      fst.SpeedP50,
		SpeedP90:      fst.SpeedP90,

		ForceTicks: c.forceTicks,
		Resets:     c.resets,
		Configures: c.configures,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.startDensity = fst.TotalDensity
	c.haveStartDensity = true
	c.forceTicks = 0
	c.resets = 0
	c.configures = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
