package domain

import (
	"math"
	"strings"
)

// WorkerKind tells the compensation model apart.
type WorkerKind string

const (
	KindHourly   WorkerKind = "hourly"
	KindSalaried WorkerKind = "salaried"
)

// Category grades salaried workers.
type Category string

const (
	CategoryInitial   Category = "INITIAL"
	CategoryTechnical Category = "TECHNICAL"
	CategoryExpert    Category = "EXPERT"
)

const (
	halfDayHours    = 4.0
	fullDayHours    = 8.0
	noDelayBonus    = 1.02
	halfDayBoundary = 0.5
)

// ParseCategory accepts the category names case-insensitively, including the
// Spanish spellings used by the first HomeSolution deployment.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INITIAL", "INICIAL":
		return CategoryInitial, nil
	case "TECHNICAL", "TECNICO", "TÉCNICO":
		return CategoryTechnical, nil
	case "EXPERT", "EXPERTO":
		return CategoryExpert, nil
	default:
		return "", invalidf("category %q must be INITIAL, TECHNICAL or EXPERT", s)
	}
}

// Worker is implemented by *Hourly and *Salaried. Cost is the only behavior
// that differs between them.
type Worker interface {
	ID() int
	Name() string
	Kind() WorkerKind
	Rate() float64
	Available() bool
	Delays() int
	Cost(days float64) (float64, error)
	MarkAssigned()
	MarkAvailable()
	RecordDelay()
}

// Workers looks workers up by id. Tasks and projects only hold ids.
type Workers interface {
	Worker(id int) (Worker, bool)
}

type workerState struct {
	id        int
	name      string
	available bool
	delays    int
}

func newWorkerState(id int, name string) (workerState, error) {
	if id <= 0 {
		return workerState{}, invalidf("worker id must be positive")
	}
	if strings.TrimSpace(name) == "" {
		return workerState{}, invalidf("worker name is required")
	}
	return workerState{id: id, name: name, available: true}, nil
}

func (w *workerState) ID() int         { return w.id }
func (w *workerState) Name() string    { return w.name }
func (w *workerState) Available() bool { return w.available }
func (w *workerState) Delays() int     { return w.delays }
func (w *workerState) MarkAssigned()   { w.available = false }
func (w *workerState) MarkAvailable()  { w.available = true }
func (w *workerState) RecordDelay()    { w.delays++ }

// Hourly bills per hour: half a day or less is a flat four hours, anything
// longer is eight hours per day.
type Hourly struct {
	workerState
	hourlyRate float64
}

func NewHourly(id int, name string, hourlyRate float64) (*Hourly, error) {
	st, err := newWorkerState(id, name)
	if err != nil {
		return nil, err
	}
	if hourlyRate <= 0 || math.IsNaN(hourlyRate) {
		return nil, invalidf("hourly rate must be greater than 0")
	}
	return &Hourly{workerState: st, hourlyRate: hourlyRate}, nil
}

func (h *Hourly) Kind() WorkerKind { return KindHourly }
func (h *Hourly) Rate() float64    { return h.hourlyRate }

func (h *Hourly) Cost(days float64) (float64, error) {
	if days < 0 {
		return 0, invalidf("duration must not be negative")
	}
	hours := days * fullDayHours
	if days <= halfDayBoundary {
		hours = halfDayHours
	}
	return h.hourlyRate * hours, nil
}

// Salaried bills whole days and earns a 2% bonus while it has no recorded
// delays. The bonus looks at the delay count at the time Cost is called.
type Salaried struct {
	workerState
	dailyRate float64
	category  Category
}

func NewSalaried(id int, name string, dailyRate float64, category Category) (*Salaried, error) {
	st, err := newWorkerState(id, name)
	if err != nil {
		return nil, err
	}
	if dailyRate <= 0 || math.IsNaN(dailyRate) {
		return nil, invalidf("daily rate must be greater than 0")
	}
	switch category {
	case CategoryInitial, CategoryTechnical, CategoryExpert:
	default:
		return nil, invalidf("category %q must be INITIAL, TECHNICAL or EXPERT", category)
	}
	return &Salaried{workerState: st, dailyRate: dailyRate, category: category}, nil
}

func (s *Salaried) Kind() WorkerKind   { return KindSalaried }
func (s *Salaried) Rate() float64      { return s.dailyRate }
func (s *Salaried) Category() Category { return s.category }

func (s *Salaried) Cost(days float64) (float64, error) {
	if days < 0 {
		return 0, invalidf("duration must not be negative")
	}
	cost := s.dailyRate * math.Ceil(days)
	if s.delays == 0 {
		cost *= noDelayBonus
	}
	return cost, nil
}

// WorkerView is a read-only copy of a worker's state.
type WorkerView struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Kind      WorkerKind `json:"kind"`
	Rate      float64    `json:"rate"`
	Category  Category   `json:"category,omitempty"`
	Available bool       `json:"available"`
	Delays    int        `json:"delays"`
}

func ViewWorker(w Worker) WorkerView {
	v := WorkerView{
		ID:        w.ID(),
		Name:      w.Name(),
		Kind:      w.Kind(),
		Rate:      w.Rate(),
		Available: w.Available(),
		Delays:    w.Delays(),
	}
	if s, ok := w.(*Salaried); ok {
		v.Category = s.Category()
	}
	return v
}
