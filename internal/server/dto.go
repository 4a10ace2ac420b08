package server

import (
	"encoding/json"

	"homesolution/internal/domain"
	"homesolution/internal/engine"
)

// Request payloads

type CreateWorkerRequest struct {
	Kind     string  `json:"kind" enum:"hourly,salaried"`
	Name     string  `json:"name" minLength:"1"`
	Rate     float64 `json:"rate" doc:"Hourly rate for hourly workers, daily rate for salaried ones"`
	Category string  `json:"category,omitempty" doc:"INITIAL, TECHNICAL or EXPERT; salaried only"`
}

type TaskRequest struct {
	Title       string  `json:"title" minLength:"1"`
	Description string  `json:"description,omitempty"`
	Days        float64 `json:"days" doc:"Estimated duration in days, fractions allowed"`
}

type CreateProjectRequest struct {
	Address      string        `json:"address" minLength:"1"`
	Client       string        `json:"client" minLength:"1"`
	Start        string        `json:"start" example:"2025-11-01"`
	EstimatedEnd string        `json:"estimated_end" example:"2025-11-05"`
	Tasks        []TaskRequest `json:"tasks,omitempty"`
}

type AssignRequest struct {
	Strategy string `json:"strategy,omitempty" enum:"first,least-delay" default:"first"`
}

type ReassignRequest struct {
	WorkerID *int   `json:"worker_id,omitempty"`
	Strategy string `json:"strategy,omitempty" enum:"least-delay"`
}

type DelayRequest struct {
	Days float64 `json:"days"`
}

type FinalizeRequest struct {
	EndDate string `json:"end_date" example:"2025-12-01"`
}

// Response payloads

type AssignmentResponse struct {
	WorkerID int           `json:"worker_id"`
	Status   domain.Status `json:"status"`
}

type CostResponse struct {
	Total float64 `json:"total"`
}

type EventResponse struct {
	ID            int64          `json:"id"`
	OpID          string         `json:"op_id"`
	TS            string         `json:"ts" format:"date-time"`
	Type          string         `json:"type"`
	ProjectNumber *int           `json:"project_number,omitempty"`
	EntityKind    string         `json:"entity_kind" enum:"worker,project,task"`
	EntityID      string         `json:"entity_id,omitempty"`
	Payload       map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items []EventResponse `json:"items"`
}

// Conversion helpers

func (r CreateProjectRequest) spec() engine.ProjectSpec {
	spec := engine.ProjectSpec{
		Address:      r.Address,
		Client:       r.Client,
		Start:        r.Start,
		EstimatedEnd: r.EstimatedEnd,
	}
	for _, t := range r.Tasks {
		spec.Tasks = append(spec.Tasks, t.spec())
	}
	return spec
}

func (r TaskRequest) spec() engine.TaskSpec {
	return engine.TaskSpec{Title: r.Title, Description: r.Description, Days: r.Days}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:            e.ID,
		OpID:          e.OpID,
		TS:            e.TS,
		Type:          e.Type,
		ProjectNumber: e.ProjectNumber,
		EntityKind:    e.EntityKind,
		EntityID:      e.EntityID,
		Payload:       decodeJSONMap(e.Payload),
	}
}

// JSON helpers

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
