package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseAdvect)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseProject)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if _, ok := stats.PhaseAvg[PhaseAdvect]; !ok {
		t.Error("expected advect phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseProject]; !ok {
		t.Error("expected project phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseAdvect)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.PhasePct["slow"] <= stats.PhasePct["fast"] {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", stats.PhasePct["slow"], stats.PhasePct["fast"])
	}
}

func TestPerfCollector_MeasureFoldsIntoNextTick(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.Measure(PhaseCommands, func() { time.Sleep(time.Millisecond) })
	pc.StartTick()
	pc.StartPhase(PhaseAdvect)
	pc.EndTick()

	stats := pc.Stats()
	if stats.PhaseAvg[PhaseCommands] < time.Millisecond {
		t.Errorf("commands phase = %v, want >= 1ms", stats.PhaseAvg[PhaseCommands])
	}
	if stats.AvgTickDuration < time.Millisecond {
		t.Errorf("tick duration %v should include measured command time", stats.AvgTickDuration)
	}

	// Pending work is consumed by exactly one tick.
	pc.StartTick()
	pc.EndTick()
	if len(pc.samples[1].Phases) != 0 {
		t.Errorf("second tick carried phases %v", pc.samples[1].Phases)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		PhasePct:        map[string]float64{PhaseProject: 60, PhaseAdvect: 25},
	}
	row := s.ToCSV(120)
	if row.WindowEnd != 120 || row.AvgTickUS != 2000 {
		t.Errorf("unexpected row header fields: %+v", row)
	}
	if row.ProjectPct != 60 || row.AdvectPct != 25 || row.DiffusePct != 0 {
		t.Errorf("unexpected phase columns: %+v", row)
	}
}

func TestPerfCollector_EvictsOldPhases(t *testing.T) {
	pc := NewPerfCollector(3)

	pc.StartTick()
	pc.StartPhase("warmup")
	time.Sleep(50 * time.Microsecond)
	pc.EndTick()
	for i := 0; i < 3; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseAdvect)
		pc.EndTick()
	}

	stats := pc.Stats()
	if _, ok := stats.PhaseAvg["warmup"]; ok {
		t.Errorf("phase from an evicted tick still reported: %v", stats.PhaseAvg)
	}
	if _, ok := stats.PhaseAvg[PhaseAdvect]; !ok {
		t.Error("expected advect phase to be tracked")
	}
}

func TestPerfCollector_TickDistribution(t *testing.T) {
	pc := NewPerfCollector(20)

	for i := 0; i < 20; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseProject)
		time.Sleep(time.Duration(i%4) * 50 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.MinTickDuration > stats.AvgTickDuration || stats.AvgTickDuration > stats.MaxTickDuration {
		t.Errorf("avg %v outside [%v, %v]", stats.AvgTickDuration, stats.MinTickDuration, stats.MaxTickDuration)
	}
	if stats.P95TickDuration < stats.MinTickDuration || stats.P95TickDuration > stats.MaxTickDuration {
		t.Errorf("p95 %v outside [%v, %v]", stats.P95TickDuration, stats.MinTickDuration, stats.MaxTickDuration)
	}
}
