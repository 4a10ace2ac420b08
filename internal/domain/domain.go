package domain

// Event is one journal entry describing a successful mutating operation.
type Event struct {
	ID            int64  `json:"id"`
	OpID          string `json:"op_id"`
	TS            string `json:"ts" format:"date-time"`
	Type          string `json:"type"`
	ProjectNumber *int   `json:"project_number,omitempty"`
	EntityKind    string `json:"entity_kind" enum:"worker,project,task"`
	EntityID      string `json:"entity_id,omitempty"`
	Payload       string `json:"payload_json"`
}

// Assignment mirrors one AssignmentHistory entry in the journal.
type Assignment struct {
	ID            int64  `json:"id"`
	OpID          string `json:"op_id"`
	ProjectNumber int    `json:"project_number"`
	WorkerID      int    `json:"worker_id"`
	TaskTitle     string `json:"task_title"`
	TS            string `json:"ts" format:"date-time"`
}

// WorkerRef is the (id, name) pair used by listings.
type WorkerRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
