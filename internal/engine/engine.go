package engine

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"homesolution/internal/domain"
	"homesolution/internal/events"
)

// Journal receives one entry per successful mutating operation.
type Journal interface {
	Append(ctx context.Context, e events.Entry) error
}

// Engine is the HomeSolution API: it owns the worker registry and the
// projects, and is the only component callers touch. A single mutex
// serializes every operation.
type Engine struct {
	Journal Journal
	Logger  *log.Logger

	mu         sync.Mutex
	registry   *Registry
	projects   map[int]*domain.Project
	projectSeq Sequence
}

func New(journal Journal, logger *log.Logger) *Engine {
	return &Engine{
		Journal:  journal,
		Logger:   logger,
		registry: NewRegistry(),
		projects: map[int]*domain.Project{},
	}
}

func (e *Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// record writes to the journal. The in-memory change has already been
// applied, so a journal failure is logged rather than returned.
func (e *Engine) record(ctx context.Context, entry events.Entry) {
	if e.Journal == nil {
		return
	}
	entry.OpID = uuid.NewString()
	if err := e.Journal.Append(ctx, entry); err != nil {
		e.logger().Printf("journal: append %s failed: %v", entry.Type, err)
	}
}

func (e *Engine) project(number int) (*domain.Project, error) {
	p, ok := e.projects[number]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "project %d", number)
	}
	return p, nil
}

func (e *Engine) openProject(number int) (*domain.Project, error) {
	p, err := e.project(number)
	if err != nil {
		return nil, err
	}
	if p.Finalized() {
		return nil, domain.Errorf(domain.ErrFinalized, "project %d", number)
	}
	return p, nil
}

func findTask(p *domain.Project, title string) (*domain.Task, error) {
	t, ok := p.Task(title)
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "task %q in project %d", title, p.Number())
	}
	return t, nil
}

func (e *Engine) worker(id int) (domain.Worker, error) {
	w, ok := e.registry.Worker(id)
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "worker %d", id)
	}
	return w, nil
}

// RegisterHourly adds an hourly worker and returns its id.
func (e *Engine) RegisterHourly(ctx context.Context, name string, hourlyRate float64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.registry.AddHourly(name, hourlyRate)
	if err != nil {
		return 0, err
	}
	e.record(ctx, events.Entry{
		Type: "worker.registered", EntityKind: "worker", EntityID: strconv.Itoa(w.ID()),
		Payload: events.EventPayload{"name": w.Name(), "kind": w.Kind(), "rate": w.Rate()},
	})
	return w.ID(), nil
}

// RegisterSalaried adds a salaried worker and returns its id.
func (e *Engine) RegisterSalaried(ctx context.Context, name string, dailyRate float64, category string) (int, error) {
	cat, err := domain.ParseCategory(category)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.registry.AddSalaried(name, dailyRate, cat)
	if err != nil {
		return 0, err
	}
	e.record(ctx, events.Entry{
		Type: "worker.registered", EntityKind: "worker", EntityID: strconv.Itoa(w.ID()),
		Payload: events.EventPayload{"name": w.Name(), "kind": w.Kind(), "rate": w.Rate(), "category": cat},
	})
	return w.ID(), nil
}

// TaskSpec describes a task to create.
type TaskSpec struct {
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Days        float64 `json:"days" yaml:"days"`
}

// ProjectSpec describes a project to register. Dates are YYYY-MM-DD.
type ProjectSpec struct {
	Address      string     `json:"address" yaml:"address"`
	Client       string     `json:"client" yaml:"client"`
	Start        string     `json:"start" yaml:"start"`
	EstimatedEnd string     `json:"estimated_end" yaml:"estimated_end"`
	Tasks        []TaskSpec `json:"tasks" yaml:"tasks"`
}

// RegisterProject creates a project with its initial tasks and returns its
// number. Tasks with a blank title are skipped.
func (e *Engine) RegisterProject(ctx context.Context, spec ProjectSpec) (int, error) {
	start, err := domain.ParseDate(spec.Start)
	if err != nil {
		return 0, err
	}
	end, err := domain.ParseDate(spec.EstimatedEnd)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := domain.NewProject(e.projectSeq.Peek(), spec.Address, spec.Client, start, end)
	if err != nil {
		return 0, err
	}
	var titles []string
	for _, ts := range spec.Tasks {
		if strings.TrimSpace(ts.Title) == "" {
			continue
		}
		t, err := domain.NewTask(ts.Title, ts.Description, ts.Days)
		if err != nil {
			return 0, err
		}
		if err := p.AddTask(e.registry, t); err != nil {
			return 0, err
		}
		titles = append(titles, t.Title())
	}
	p.UpdateStatus()
	e.projects[e.projectSeq.Next()] = p
	e.record(ctx, events.Entry{
		Type: "project.registered", ProjectNumber: p.Number(), EntityKind: "project", EntityID: strconv.Itoa(p.Number()),
		Payload: events.EventPayload{"address": p.Address(), "client": p.Client(), "tasks": titles, "status": p.Status()},
	})
	return p.Number(), nil
}

// AddTask appends a task to an open project.
func (e *Engine) AddTask(ctx context.Context, number int, spec TaskSpec) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.openProject(number)
	if err != nil {
		return err
	}
	if strings.TrimSpace(spec.Description) == "" {
		return domain.Errorf(domain.ErrInvalidArgument, "task description is required")
	}
	t, err := domain.NewTask(spec.Title, spec.Description, spec.Days)
	if err != nil {
		return err
	}
	if err := p.AddTask(e.registry, t); err != nil {
		return err
	}
	p.UpdateStatus()
	e.record(ctx, events.Entry{
		Type: "task.added", ProjectNumber: number, EntityKind: "task", EntityID: t.Title(),
		Payload: events.EventPayload{"days": t.EstimatedDays(), "status": p.Status()},
	})
	return nil
}

// AssignFirstAvailable gives the task to the earliest registered available
// worker and returns that worker's id.
func (e *Engine) AssignFirstAvailable(ctx context.Context, number int, title string) (int, error) {
	return e.assign(ctx, number, title, "first-available", func() domain.Worker {
		return e.registry.FirstAvailable()
	})
}

// AssignLeastDelay gives the task to the available worker with the fewest
// delays and returns that worker's id.
func (e *Engine) AssignLeastDelay(ctx context.Context, number int, title string) (int, error) {
	return e.assign(ctx, number, title, "least-delay", func() domain.Worker {
		return e.registry.LeastDelayed(0)
	})
}

func (e *Engine) assign(ctx context.Context, number int, title, strategy string, pick func() domain.Worker) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.openProject(number)
	if err != nil {
		return 0, err
	}
	t, err := findTask(p, title)
	if err != nil {
		return 0, err
	}
	if t.Assigned() {
		return 0, domain.Errorf(domain.ErrConflict, "task %q already has a worker", title)
	}
	if t.Done() {
		return 0, domain.Errorf(domain.ErrConflict, "task %q is done", title)
	}
	w := pick()
	if w == nil {
		p.MarkPending()
		return 0, domain.Errorf(domain.ErrUnavailable, "no worker can take task %q", title)
	}
	if err := t.AssignWorker(e.registry, w.ID()); err != nil {
		return 0, err
	}
	if err := p.RecordAssignment(w.ID(), title); err != nil {
		return 0, err
	}
	p.UpdateStatus()
	if err := p.RecomputeCost(e.registry); err != nil {
		return 0, err
	}
	e.record(ctx, events.Entry{
		Type: "task.assigned", ProjectNumber: number, EntityKind: "task", EntityID: title,
		Payload:    events.EventPayload{"worker_id": w.ID(), "strategy": strategy, "status": p.Status()},
		Assignment: &events.AssignmentEntry{WorkerID: w.ID(), TaskTitle: title},
	})
	return w.ID(), nil
}

// Reassign hands an assigned task over to workerID, releasing the current
// worker. Project status is not touched: completeness cannot change.
func (e *Engine) Reassign(ctx context.Context, number, workerID int, title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.openProject(number)
	if err != nil {
		return err
	}
	next, err := e.worker(workerID)
	if err != nil {
		return err
	}
	t, err := findTask(p, title)
	if err != nil {
		return err
	}
	cur, err := reassignable(t)
	if err != nil {
		return err
	}
	if cur == workerID {
		return domain.Errorf(domain.ErrConflict, "worker %d already holds task %q", workerID, title)
	}
	if !next.Available() {
		return domain.Errorf(domain.ErrUnavailable, "worker %d is assigned elsewhere", workerID)
	}
	return e.handOver(ctx, p, t, cur, workerID, "explicit")
}

// ReassignLeastDelay hands an assigned task over to the worker with the
// fewest delays. The current worker is released first and competes like any
// other available worker; it may be picked again.
func (e *Engine) ReassignLeastDelay(ctx context.Context, number int, title string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.openProject(number)
	if err != nil {
		return 0, err
	}
	t, err := findTask(p, title)
	if err != nil {
		return 0, err
	}
	cur, err := reassignable(t)
	if err != nil {
		return 0, err
	}
	w := e.registry.LeastDelayed(cur)
	if w == nil {
		return 0, domain.Errorf(domain.ErrUnavailable, "no worker can take task %q", title)
	}
	if err := e.handOver(ctx, p, t, cur, w.ID(), "least-delay"); err != nil {
		return 0, err
	}
	return w.ID(), nil
}

func reassignable(t *domain.Task) (int, error) {
	cur, ok := t.WorkerID()
	if !ok {
		return 0, domain.Errorf(domain.ErrConflict, "task %q has no worker to replace", t.Title())
	}
	if t.Done() {
		return 0, domain.Errorf(domain.ErrConflict, "task %q is done", t.Title())
	}
	return cur, nil
}

func (e *Engine) handOver(ctx context.Context, p *domain.Project, t *domain.Task, from, to int, strategy string) error {
	if err := t.AssignWorker(e.registry, to); err != nil {
		return err
	}
	if err := p.RecordAssignment(to, t.Title()); err != nil {
		return err
	}
	if err := p.RecomputeCost(e.registry); err != nil {
		return err
	}
	e.record(ctx, events.Entry{
		Type: "task.reassigned", ProjectNumber: p.Number(), EntityKind: "task", EntityID: t.Title(),
		Payload:    events.EventPayload{"from_worker_id": from, "worker_id": to, "strategy": strategy},
		Assignment: &events.AssignmentEntry{WorkerID: to, TaskTitle: t.Title()},
	})
	return nil
}

// RecordDelay adds days of delay to a task, counts one delay against its
// worker, pushes the project's actual end out by the whole days and
// recomputes the project cost.
func (e *Engine) RecordDelay(ctx context.Context, number int, title string, days float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.openProject(number)
	if err != nil {
		return err
	}
	t, err := findTask(p, title)
	if err != nil {
		return err
	}
	if err := t.RecordDelay(e.registry, days); err != nil {
		return err
	}
	p.ExtendActualEnd(days)
	if err := p.RecomputeCost(e.registry); err != nil {
		return err
	}
	payload := events.EventPayload{"days": days, "actual_end": domain.FormatDate(p.ActualEnd())}
	if id, ok := t.WorkerID(); ok {
		payload["worker_id"] = id
	}
	e.record(ctx, events.Entry{
		Type: "task.delayed", ProjectNumber: number, EntityKind: "task", EntityID: title, Payload: payload,
	})
	return nil
}

// FinishTask marks a task done and frees its worker.
func (e *Engine) FinishTask(ctx context.Context, number int, title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.openProject(number)
	if err != nil {
		return err
	}
	t, err := findTask(p, title)
	if err != nil {
		return err
	}
	if t.Done() {
		return domain.Errorf(domain.ErrConflict, "task %q is already done", title)
	}
	t.MarkDone(e.registry, true)
	e.record(ctx, events.Entry{
		Type: "task.finished", ProjectNumber: number, EntityKind: "task", EntityID: title,
	})
	return nil
}

// FinalizeProject closes the project on endDate (YYYY-MM-DD).
func (e *Engine) FinalizeProject(ctx context.Context, number int, endDate string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.project(number)
	if err != nil {
		return err
	}
	end, err := domain.ParseDate(endDate)
	if err != nil {
		return err
	}
	if err := p.Finalize(e.registry, end); err != nil {
		return err
	}
	e.record(ctx, events.Entry{
		Type: "project.finalized", ProjectNumber: number, EntityKind: "project", EntityID: strconv.Itoa(number),
		Payload: events.EventPayload{"actual_end": endDate, "cost": p.Cost()},
	})
	return nil
}
