package domain

import "strings"

// Task is a unit of work inside a project. The assigned worker is held by id
// and resolved through a Workers lookup when its state is needed.
type Task struct {
	title         string
	description   string
	estimatedDays float64
	delayDays     float64
	workerID      int
	done          bool
}

func NewTask(title, description string, estimatedDays float64) (*Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, invalidf("task title is required")
	}
	if !validDays(estimatedDays) {
		return nil, invalidf("estimated days for %q must be in (0, %d]", title, MaxDays)
	}
	return &Task{title: title, description: description, estimatedDays: estimatedDays}, nil
}

func (t *Task) Title() string          { return t.title }
func (t *Task) Description() string    { return t.description }
func (t *Task) EstimatedDays() float64 { return t.estimatedDays }
func (t *Task) DelayDays() float64     { return t.delayDays }
func (t *Task) Done() bool             { return t.done }
func (t *Task) Assigned() bool         { return t.workerID != 0 }
func (t *Task) WorkerID() (int, bool)  { return t.workerID, t.workerID != 0 }
func (t *Task) String() string         { return t.title }

func (t *Task) workerIn(ws Workers) Worker {
	if t.workerID == 0 || ws == nil {
		return nil
	}
	w, ok := ws.Worker(t.workerID)
	if !ok {
		return nil
	}
	return w
}

// AssignWorker releases the current worker, if any, then records and marks
// the new one. id 0 only releases. Whether the new worker is free is the
// caller's concern.
func (t *Task) AssignWorker(ws Workers, id int) error {
	if t.done {
		return conflictf("task %q is done", t.title)
	}
	var next Worker
	if id != 0 {
		w, ok := ws.Worker(id)
		if !ok {
			return Errorf(ErrNotFound, "worker %d", id)
		}
		next = w
	}
	if cur := t.workerIn(ws); cur != nil {
		cur.MarkAvailable()
	}
	t.workerID = id
	if next != nil {
		next.MarkAssigned()
	}
	return nil
}

// RecordDelay adds days to the accumulated delay and counts one delay
// against the assigned worker.
func (t *Task) RecordDelay(ws Workers, days float64) error {
	if !validDays(days) {
		return invalidf("delay days must be in (0, %d]", MaxDays)
	}
	if t.done {
		return conflictf("task %q is done", t.title)
	}
	t.delayDays += days
	if w := t.workerIn(ws); w != nil {
		w.RecordDelay()
	}
	return nil
}

// MarkDone releases the worker but keeps the reference for lookups.
func (t *Task) MarkDone(ws Workers, done bool) {
	t.done = done
	if done {
		if w := t.workerIn(ws); w != nil {
			w.MarkAvailable()
		}
	}
}

// Cost bills the assigned worker for the estimate plus accumulated delay.
func (t *Task) Cost(ws Workers) (float64, error) {
	w := t.workerIn(ws)
	if w == nil {
		return 0, nil
	}
	return w.Cost(t.estimatedDays + t.delayDays)
}

// TaskView is a read-only copy of a task.
type TaskView struct {
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	EstimatedDays float64 `json:"estimated_days"`
	DelayDays     float64 `json:"delay_days"`
	WorkerID      *int    `json:"worker_id,omitempty"`
	Done          bool    `json:"done"`
	Cost          float64 `json:"cost"`
}

func (t *Task) View(ws Workers) (TaskView, error) {
	cost, err := t.Cost(ws)
	if err != nil {
		return TaskView{}, err
	}
	v := TaskView{
		Title:         t.title,
		Description:   t.description,
		EstimatedDays: t.estimatedDays,
		DelayDays:     t.delayDays,
		Done:          t.done,
		Cost:          cost,
	}
	if id, ok := t.WorkerID(); ok {
		v.WorkerID = &id
	}
	return v, nil
}
