package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNonFinite       BookmarkType = "non_finite"
	BookmarkDivergenceSpike BookmarkType = "divergence_spike"
	BookmarkEnergySurge     BookmarkType = "energy_surge"
	BookmarkDensityDrift    BookmarkType = "density_drift"
	BookmarkQuiescent       BookmarkType = "quiescent"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	level := slog.LevelInfo
	if b.Type == BookmarkNonFinite {
		level = slog.LevelError
	}
	slog.Log(context.Background(), level, "bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// Thresholds for the bookmark detector.
const (
	spikeFactor      = 4.0  // max divergence vs rolling mean
	spikeFloor       = 1e-3 // ignore spikes below this absolute level
	surgeFactor      = 3.0  // kinetic energy vs rolling mean, without forcing
	driftLimit       = 0.05 // relative density change per window
	quiescentEnergy  = 1e-6
	quiescentWindows = 5
)

// BookmarkDetector flags numerically interesting windows: blow-ups, loss of
// incompressibility, unforced energy growth and the flow coming to rest.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	quietWindows int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := checkNonFinite(stats); b != nil {
		// Everything else is meaningless once the fields hold NaN or Inf.
		bd.addToHistory(stats)
		return []Bookmark{*b}
	}
	if b := bd.checkDivergenceSpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkEnergySurge(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := checkDensityDrift(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkQuiescent(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func checkNonFinite(stats WindowStats) *Bookmark {
	for _, v := range []float64{stats.TotalDensity, stats.KineticEnergy, stats.MaxDivergence} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &Bookmark{
				Type:        BookmarkNonFinite,
				Tick:        stats.WindowEndTick,
				Description: "fields contain NaN or Inf",
			}
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkDivergenceSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.MaxDivergence
	}
	avg := total / float64(len(history))

	if stats.MaxDivergence > spikeFloor && stats.MaxDivergence > avg*spikeFactor {
		return &Bookmark{
			Type:        BookmarkDivergenceSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Max divergence %.2e is %.1fx average (%.2e)", stats.MaxDivergence, stats.MaxDivergence/math.Max(avg, 1e-12), avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkEnergySurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.ForceTicks > 0 || stats.Resets > 0 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.KineticEnergy
	}
	avg := total / float64(len(history))
	if avg <= quiescentEnergy {
		return nil
	}

	if stats.KineticEnergy > avg*surgeFactor {
		return &Bookmark{
			Type:        BookmarkEnergySurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Unforced kinetic energy %.3g is %.1fx average (%.3g)", stats.KineticEnergy, stats.KineticEnergy/avg, avg),
		}
	}
	return nil
}

func checkDensityDrift(stats WindowStats) *Bookmark {
	if stats.ForceTicks > 0 || stats.Resets > 0 {
		return nil
	}
	if math.Abs(stats.DensityDrift) > driftLimit {
		return &Bookmark{
			Type:        BookmarkDensityDrift,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Total density drifted %.1f%% without injection", stats.DensityDrift*100),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkQuiescent(stats WindowStats) *Bookmark {
	if stats.KineticEnergy > quiescentEnergy || stats.ForceTicks > 0 {
		bd.quietWindows = 0
		return nil
	}
	bd.quietWindows++
	if bd.quietWindows == quiescentWindows { // trigger exactly once per quiet spell
		return &Bookmark{
			Type:        BookmarkQuiescent,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Flow at rest for %d windows", quiescentWindows),
		}
	}
	return nil
}
