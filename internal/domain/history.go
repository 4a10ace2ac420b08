package domain

// AssignmentHistory is the append-only ledger of which worker took which task
// in one project. Entries survive reassignment.
type AssignmentHistory struct {
	participants []int
	tasks        map[int][]string
}

func NewAssignmentHistory() *AssignmentHistory {
	return &AssignmentHistory{tasks: map[int][]string{}}
}

// Record appends task to the worker's sequence, adding the worker to the
// participant set on first use.
func (h *AssignmentHistory) Record(workerID int, taskTitle string) error {
	if workerID <= 0 {
		return invalidf("history entry needs a worker")
	}
	if taskTitle == "" {
		return invalidf("history entry needs a task")
	}
	if _, seen := h.tasks[workerID]; !seen {
		h.participants = append(h.participants, workerID)
	}
	h.tasks[workerID] = append(h.tasks[workerID], taskTitle)
	return nil
}

// Participated reports whether the worker was ever assigned in the project.
func (h *AssignmentHistory) Participated(workerID int) bool {
	_, ok := h.tasks[workerID]
	return ok
}

// Participants returns worker ids in first-assignment order.
func (h *AssignmentHistory) Participants() []int {
	return append([]int(nil), h.participants...)
}

// TasksOf returns the task titles the worker was assigned, oldest first.
func (h *AssignmentHistory) TasksOf(workerID int) []string {
	return append([]string(nil), h.tasks[workerID]...)
}

// HistoryEntry groups one participant's tasks.
type HistoryEntry struct {
	WorkerID int      `json:"worker_id"`
	Tasks    []string `json:"tasks"`
}

func (h *AssignmentHistory) Entries() []HistoryEntry {
	out := make([]HistoryEntry, 0, len(h.participants))
	for _, id := range h.participants {
		out = append(out, HistoryEntry{WorkerID: id, Tasks: h.TasksOf(id)})
	}
	return out
}
