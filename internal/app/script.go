package app

import (
	"context"
	"fmt"

	"homesolution/internal/config"
	"homesolution/internal/engine"
)

// StepResult reports what one scripted step did.
type StepResult struct {
	Step   config.Step
	Worker int
	Err    error
}

// RunScript applies each step in order. A failing step is recorded and the
// script continues; the engine guarantees a failed operation changed nothing.
func RunScript(ctx context.Context, eng *engine.Engine, s *config.Script) []StepResult {
	res := make([]StepResult, 0, len(s.Steps))
	for _, st := range s.Steps {
		w, err := runStep(ctx, eng, st)
		res = append(res, StepResult{Step: st, Worker: w, Err: err})
	}
	return res
}

func runStep(ctx context.Context, eng *engine.Engine, st config.Step) (int, error) {
	switch st.Op {
	case config.OpAddTask:
		return 0, eng.AddTask(ctx, st.Project, engine.TaskSpec{Title: st.Task, Description: st.Description, Days: st.Days})
	case config.OpAssign:
		if st.Strategy == config.StrategyLeastDelay {
			return eng.AssignLeastDelay(ctx, st.Project, st.Task)
		}
		return eng.AssignFirstAvailable(ctx, st.Project, st.Task)
	case config.OpReassign:
		if st.Worker == 0 {
			return eng.ReassignLeastDelay(ctx, st.Project, st.Task)
		}
		return st.Worker, eng.Reassign(ctx, st.Project, st.Worker, st.Task)
	case config.OpDelay:
		return 0, eng.RecordDelay(ctx, st.Project, st.Task, st.Days)
	case config.OpFinish:
		return 0, eng.FinishTask(ctx, st.Project, st.Task)
	case config.OpFinalize:
		return 0, eng.FinalizeProject(ctx, st.Project, st.Date)
	default:
		return 0, fmt.Errorf("unknown op %q", st.Op)
	}
}
