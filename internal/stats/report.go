// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"

	"github.com/verte-zerg/reaper/internal/model"
	"github.com/verte-zerg/reaper/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions    []model.SessionAggregate
	EventCounts []model.EventCount
	WPMCurve    []float64
	Survival    []float64
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	counts, err := st.EventCounts(ctx, sessionIDs(sessions))
	if err != nil {
		return Report{}, err
	}
	wpms := make([]float64, len(sessions))
	survival := make([]float64, len(sessions))
	for i, s := range sessions {
		wpms[i], survival[i] = SessionMetrics(s.Words, s.SurvivedMs)
	}
	return Report{
		Sessions:    sessions,
		EventCounts: counts,
		WPMCurve:    MovingAverage(wpms, cfg.CurveWindow),
		Survival:    MovingAverage(survival, cfg.CurveWindow),
	}, nil
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}
