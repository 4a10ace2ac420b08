package domain

import (
	"strings"
	"time"
)

// Status is the project lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusFinalized Status = "FINALIZED"
)

// ParseStatus accepts status names case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusActive:
		return StatusActive, nil
	case StatusFinalized:
		return StatusFinalized, nil
	default:
		return "", invalidf("status %q must be PENDING, ACTIVE or FINALIZED", s)
	}
}

const (
	marginOnTime  = 1.35
	marginDelayed = 1.25
)

// Project owns its tasks and assignment history. PENDING and ACTIVE follow
// assignment completeness; FINALIZED is terminal.
type Project struct {
	number       int
	address      string
	client       string
	start        time.Time
	estimatedEnd time.Time
	actualEnd    time.Time
	status       Status
	cost         float64
	tasks        []*Task
	history      *AssignmentHistory
}

func NewProject(number int, address, client string, start, estimatedEnd time.Time) (*Project, error) {
	if number <= 0 {
		return nil, invalidf("project number must be positive")
	}
	if strings.TrimSpace(address) == "" {
		return nil, invalidf("project address is required")
	}
	if strings.TrimSpace(client) == "" {
		return nil, invalidf("project client is required")
	}
	if start.IsZero() || estimatedEnd.IsZero() {
		return nil, invalidf("project dates are required")
	}
	if estimatedEnd.Before(start) {
		return nil, invalidf("estimated end %s is before start %s", FormatDate(estimatedEnd), FormatDate(start))
	}
	return &Project{
		number:       number,
		address:      address,
		client:       client,
		start:        start,
		estimatedEnd: estimatedEnd,
		actualEnd:    estimatedEnd,
		status:       StatusPending,
		history:      NewAssignmentHistory(),
	}, nil
}

func (p *Project) Number() int                 { return p.number }
func (p *Project) Address() string             { return p.address }
func (p *Project) Client() string              { return p.client }
func (p *Project) Start() time.Time            { return p.start }
func (p *Project) EstimatedEnd() time.Time     { return p.estimatedEnd }
func (p *Project) ActualEnd() time.Time        { return p.actualEnd }
func (p *Project) Status() Status              { return p.status }
func (p *Project) Cost() float64               { return p.cost }
func (p *Project) Finalized() bool             { return p.status == StatusFinalized }
func (p *Project) History() *AssignmentHistory { return p.history }

// Tasks returns the tasks in insertion order.
func (p *Project) Tasks() []*Task {
	return append([]*Task(nil), p.tasks...)
}

// Task finds a task by title.
func (p *Project) Task(title string) (*Task, bool) {
	for _, t := range p.tasks {
		if t.title == title {
			return t, true
		}
	}
	return nil, false
}

// Late reports whether the actual end date has slipped past the estimate.
func (p *Project) Late() bool {
	return p.actualEnd.After(p.estimatedEnd)
}

// HasDelayedTask reports whether any task accumulated delay.
func (p *Project) HasDelayedTask() bool {
	for _, t := range p.tasks {
		if t.delayDays > 0 {
			return true
		}
	}
	return false
}

// AddTask appends t, pushes both end dates out by its whole days and
// recomputes the cost.
func (p *Project) AddTask(ws Workers, t *Task) error {
	if t == nil {
		return invalidf("task is required")
	}
	if p.Finalized() {
		return Errorf(ErrFinalized, "project %d", p.number)
	}
	if _, dup := p.Task(t.title); dup {
		return invalidf("task %q already exists in project %d", t.title, p.number)
	}
	p.tasks = append(p.tasks, t)
	p.estimatedEnd = addDays(p.estimatedEnd, t.estimatedDays)
	p.actualEnd = addDays(p.actualEnd, t.estimatedDays)
	return p.RecomputeCost(ws)
}

// RecomputeCost sums each assigned task's estimate billed by its worker and
// applies the margin: 1.25 when any task is delayed, 1.35 otherwise.
// Accumulated delay is left out of the base on purpose; Task.Cost includes it.
func (p *Project) RecomputeCost(ws Workers) error {
	var base float64
	for _, t := range p.tasks {
		w := t.workerIn(ws)
		if w == nil {
			continue
		}
		c, err := w.Cost(t.estimatedDays)
		if err != nil {
			return err
		}
		base += c
	}
	margin := marginOnTime
	if p.HasDelayedTask() {
		margin = marginDelayed
	}
	p.cost = base * margin
	return nil
}

// UpdateStatus sets PENDING while any task lacks a worker, ACTIVE otherwise.
// A finalized project is left alone.
func (p *Project) UpdateStatus() Status {
	if p.Finalized() {
		return p.status
	}
	p.status = StatusActive
	for _, t := range p.tasks {
		if !t.Assigned() {
			p.status = StatusPending
			break
		}
	}
	return p.status
}

// MarkPending forces PENDING unless the project is finalized.
func (p *Project) MarkPending() {
	if !p.Finalized() {
		p.status = StatusPending
	}
}

// ExtendActualEnd pushes the actual end date out by whole days.
func (p *Project) ExtendActualEnd(days float64) {
	p.actualEnd = addDays(p.actualEnd, days)
}

// RecordAssignment appends the pairing to the project's history.
func (p *Project) RecordAssignment(workerID int, taskTitle string) error {
	return p.history.Record(workerID, taskTitle)
}

// CheckFinalize reports why Finalize(end) would fail, without mutating.
func (p *Project) CheckFinalize(end time.Time) error {
	if p.Finalized() {
		return Errorf(ErrFinalized, "project %d", p.number)
	}
	if end.IsZero() {
		return invalidf("end date is required")
	}
	if end.Before(p.start) {
		return invalidf("end date %s is before start %s", FormatDate(end), FormatDate(p.start))
	}
	for _, t := range p.tasks {
		if !t.done {
			return Errorf(ErrInvariant, "project %d has unfinished task %q", p.number, t.title)
		}
	}
	return nil
}

// Finalize closes the project on end. Every task must be done.
func (p *Project) Finalize(ws Workers, end time.Time) error {
	if err := p.CheckFinalize(end); err != nil {
		return err
	}
	p.actualEnd = end
	if err := p.RecomputeCost(ws); err != nil {
		return err
	}
	p.status = StatusFinalized
	return nil
}

// ProjectRef is the (number, address) pair used by listings.
type ProjectRef struct {
	Number  int    `json:"number"`
	Address string `json:"address"`
}

func (p *Project) Ref() ProjectRef {
	return ProjectRef{Number: p.number, Address: p.address}
}

// ProjectView is a read-only copy of a project.
type ProjectView struct {
	Number       int            `json:"number"`
	Address      string         `json:"address"`
	Client       string         `json:"client"`
	Start        string         `json:"start"`
	EstimatedEnd string         `json:"estimated_end"`
	ActualEnd    string         `json:"actual_end"`
	Status       Status         `json:"status"`
	Cost         float64        `json:"cost"`
	Late         bool           `json:"late"`
	Delayed      bool           `json:"delayed"`
	Tasks        []TaskView     `json:"tasks"`
	History      []HistoryEntry `json:"history"`
}

func (p *Project) View(ws Workers) (ProjectView, error) {
	v := ProjectView{
		Number:       p.number,
		Address:      p.address,
		Client:       p.client,
		Start:        FormatDate(p.start),
		EstimatedEnd: FormatDate(p.estimatedEnd),
		ActualEnd:    FormatDate(p.actualEnd),
		Status:       p.status,
		Cost:         p.cost,
		Late:         p.Late(),
		Delayed:      p.HasDelayedTask(),
		Tasks:        make([]TaskView, 0, len(p.tasks)),
		History:      p.history.Entries(),
	}
	for _, t := range p.tasks {
		tv, err := t.View(ws)
		if err != nil {
			return ProjectView{}, err
		}
		v.Tasks = append(v.Tasks, tv)
	}
	return v, nil
}
