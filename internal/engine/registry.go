package engine

import (
	"homesolution/internal/domain"
)

// Sequence hands out positive ids in order. The zero value starts at 1.
type Sequence struct {
	last int
}

// Peek returns the id Next would hand out without consuming it.
func (s *Sequence) Peek() int { return s.last + 1 }

func (s *Sequence) Next() int {
	s.last++
	return s.last
}

// Registry owns every worker. Both variants draw ids from one sequence so
// they never collide, and iteration follows registration order.
type Registry struct {
	seq     Sequence
	workers map[int]domain.Worker
	order   []int
}

func NewRegistry() *Registry {
	return &Registry{workers: map[int]domain.Worker{}}
}

func (r *Registry) Worker(id int) (domain.Worker, bool) {
	w, ok := r.workers[id]
	return w, ok
}

func (r *Registry) AddHourly(name string, rate float64) (domain.Worker, error) {
	w, err := domain.NewHourly(r.seq.Peek(), name, rate)
	if err != nil {
		return nil, err
	}
	r.add(w)
	return w, nil
}

func (r *Registry) AddSalaried(name string, rate float64, category domain.Category) (domain.Worker, error) {
	w, err := domain.NewSalaried(r.seq.Peek(), name, rate, category)
	if err != nil {
		return nil, err
	}
	r.add(w)
	return w, nil
}

func (r *Registry) add(w domain.Worker) {
	id := r.seq.Next()
	r.workers[id] = w
	r.order = append(r.order, id)
}

// All returns workers in registration order.
func (r *Registry) All() []domain.Worker {
	out := make([]domain.Worker, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.workers[id])
	}
	return out
}

// FirstAvailable returns the earliest registered available worker.
func (r *Registry) FirstAvailable() domain.Worker {
	for _, id := range r.order {
		if w := r.workers[id]; w.Available() {
			return w
		}
	}
	return nil
}

// LeastDelayed returns the available worker with the fewest delays, earliest
// registered on ties. freed is treated as available even if it is not; pass
// 0 when no worker is about to be released.
func (r *Registry) LeastDelayed(freed int) domain.Worker {
	var best domain.Worker
	for _, id := range r.order {
		w := r.workers[id]
		if !w.Available() && id != freed {
			continue
		}
		if best == nil || w.Delays() < best.Delays() {
			best = w
		}
	}
	return best
}
