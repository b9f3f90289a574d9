package state

import "github.com/vanderheijden86/orbview/pkg/model"

// RecordAnalysisRun appends run to the analysis history, evicting the
// oldest entries beyond the limit. A run with an id already present
// replaces the earlier entry.
func (s State) RecordAnalysisRun(run model.RunSummary) State {
	run.Kind = model.RunAnalysis
	s.AnalysisRuns = appendRun(s.AnalysisRuns, run, s.limits().MaxAnalysisRuns)
	return s
}

// RecordPlanningRun appends run to the planning history with the same
// eviction rule as RecordAnalysisRun.
func (s State) RecordPlanningRun(run model.RunSummary) State {
	run.Kind = model.RunPlanning
	s.PlanningRuns = appendRun(s.PlanningRuns, run, s.limits().MaxPlanningRuns)
	return s
}

func (s State) limits() Limits {
	l := s.Limits
	def := DefaultLimits()
	if l.MaxAnalysisRuns <= 0 {
		l.MaxAnalysisRuns = def.MaxAnalysisRuns
	}
	if l.MaxPlanningRuns <= 0 {
		l.MaxPlanningRuns = def.MaxPlanningRuns
	}
	return l
}

// appendRun returns a new slice; runs is never written through.
func appendRun(runs []model.RunSummary, run model.RunSummary, limit int) []model.RunSummary {
	out := make([]model.RunSummary, 0, len(runs)+1)
	for _, r := range runs {
		if run.ID != "" && r.ID == run.ID {
			continue
		}
		out = append(out, r)
	}
	out = append(out, run)
	return capRuns(out, limit)
}

// capRuns keeps the newest limit entries, oldest first.
func capRuns(runs []model.RunSummary, limit int) []model.RunSummary {
	if len(runs) <= limit {
		return runs
	}
	out := make([]model.RunSummary, limit)
	copy(out, runs[len(runs)-limit:])
	return out
}
