package engine

import (
	"sort"

	"homesolution/internal/domain"
)

func (e *Engine) sortedProjects() []*domain.Project {
	out := make([]*domain.Project, 0, len(e.projects))
	for _, p := range e.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number() < out[j].Number() })
	return out
}

// ProjectsByStatus lists (number, address) pairs of projects in status.
func (e *Engine) ProjectsByStatus(status domain.Status) []domain.ProjectRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := []domain.ProjectRef{}
	for _, p := range e.sortedProjects() {
		if p.Status() == status {
			res = append(res, p.Ref())
		}
	}
	return res
}

func (e *Engine) FinalizedProjects() []domain.ProjectRef {
	return e.ProjectsByStatus(domain.StatusFinalized)
}

func (e *Engine) PendingProjects() []domain.ProjectRef {
	return e.ProjectsByStatus(domain.StatusPending)
}

func (e *Engine) ActiveProjects() []domain.ProjectRef {
	return e.ProjectsByStatus(domain.StatusActive)
}

// TaskTitles lists a project's task titles in insertion order.
func (e *Engine) TaskTitles(number int) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.project(number)
	if err != nil {
		return nil, err
	}
	res := []string{}
	for _, t := range p.Tasks() {
		res = append(res, t.Title())
	}
	return res, nil
}

// UnassignedTasks lists the tasks of a project that have no worker.
func (e *Engine) UnassignedTasks(number int) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.project(number)
	if err != nil {
		return nil, err
	}
	res := []string{}
	for _, t := range p.Tasks() {
		if !t.Assigned() {
			res = append(res, t.String())
		}
	}
	return res, nil
}

// AvailableWorkers lists the ids of workers not currently assigned.
func (e *Engine) AvailableWorkers() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := []int{}
	for _, w := range e.registry.All() {
		if w.Available() {
			res = append(res, w.ID())
		}
	}
	return res
}

// AssignedWorkers lists (id, name) for the worker referenced by each task of
// the project, in task order. Finished tasks keep their reference.
func (e *Engine) AssignedWorkers(number int) ([]domain.WorkerRef, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.project(number)
	if err != nil {
		return nil, err
	}
	res := []domain.WorkerRef{}
	for _, t := range p.Tasks() {
		id, ok := t.WorkerID()
		if !ok {
			continue
		}
		if w, ok := e.registry.Worker(id); ok {
			res = append(res, domain.WorkerRef{ID: id, Name: w.Name()})
		}
	}
	return res, nil
}

// Workers lists every worker as (id, name) in registration order.
func (e *Engine) Workers() []domain.WorkerRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := []domain.WorkerRef{}
	for _, w := range e.registry.All() {
		res = append(res, domain.WorkerRef{ID: w.ID(), Name: w.Name()})
	}
	return res
}

func (e *Engine) Worker(id int) (domain.WorkerView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.worker(id)
	if err != nil {
		return domain.WorkerView{}, err
	}
	return domain.ViewWorker(w), nil
}

func (e *Engine) WorkerViews() []domain.WorkerView {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := []domain.WorkerView{}
	for _, w := range e.registry.All() {
		res = append(res, domain.ViewWorker(w))
	}
	return res
}

// WorkerDelays returns how many delays were recorded against a worker.
func (e *Engine) WorkerDelays(id int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, err := e.worker(id)
	if err != nil {
		return 0, err
	}
	return w.Delays(), nil
}

// HasDelays reports whether a worker has any recorded delay. Unknown ids
// report false.
func (e *Engine) HasDelays(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, ok := e.registry.Worker(id)
	return ok && w.Delays() > 0
}

// TotalCost recomputes every project's cost and returns the sum.
func (e *Engine) TotalCost() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var total float64
	for _, p := range e.sortedProjects() {
		if err := p.RecomputeCost(e.registry); err != nil {
			return 0, err
		}
		total += p.Cost()
	}
	return total, nil
}

func (e *Engine) ProjectAddress(number int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.project(number)
	if err != nil {
		return "", err
	}
	return p.Address(), nil
}

func (e *Engine) IsFinalized(number int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.projects[number]
	return ok && p.Finalized()
}

func (e *Engine) ProjectStatus(number int) (domain.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.project(number)
	if err != nil {
		return "", err
	}
	return p.Status(), nil
}

// Project returns a snapshot of one project.
func (e *Engine) Project(number int) (domain.ProjectView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.project(number)
	if err != nil {
		return domain.ProjectView{}, err
	}
	return p.View(e.registry)
}

// Projects returns snapshots of every project in number order.
func (e *Engine) Projects() ([]domain.ProjectView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := []domain.ProjectView{}
	for _, p := range e.sortedProjects() {
		v, err := p.View(e.registry)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

// History returns the project's assignment ledger.
func (e *Engine) History(number int) ([]domain.HistoryEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.project(number)
	if err != nil {
		return nil, err
	}
	return p.History().Entries(), nil
}

// ProjectSummary is one row of the report.
type ProjectSummary struct {
	Number  int           `json:"number"`
	Address string        `json:"address"`
	Client  string        `json:"client"`
	Status  domain.Status `json:"status"`
	Cost    float64       `json:"cost"`
	Tasks   int           `json:"tasks"`
	Done    int           `json:"done"`
	Delayed bool          `json:"delayed"`
	Late    bool          `json:"late"`
}

// Report summarizes every project with a freshly computed cost.
func (e *Engine) Report() ([]ProjectSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := []ProjectSummary{}
	for _, p := range e.sortedProjects() {
		if err := p.RecomputeCost(e.registry); err != nil {
			return nil, err
		}
		s := ProjectSummary{
			Number:  p.Number(),
			Address: p.Address(),
			Client:  p.Client(),
			Status:  p.Status(),
			Cost:    p.Cost(),
			Tasks:   len(p.Tasks()),
			Delayed: p.HasDelayedTask(),
			Late:    p.Late(),
		}
		for _, t := range p.Tasks() {
			if t.Done() {
				s.Done++
			}
		}
		res = append(res, s)
	}
	return res, nil
}
