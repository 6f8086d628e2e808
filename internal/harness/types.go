package harness

// StepOutcome records what one flow step did.
type StepOutcome struct {
	Index   int    `json:"index"`
	Op      string `json:"op"`
	File    string `json:"file"`
	Outcome string `json:"outcome"` // "ok", "noop" or an error code

	// RevisionNumber is set when the step persisted a revision.
	RevisionNumber *int32 `json:"revision_number,omitempty"`
}

// HistoryEntry is the golden-file view of one revision. Timestamps and
// row ids are left out so snapshots stay readable.
type HistoryEntry struct {
	Number  int32    `json:"number"`
	Type    string   `json:"type"`
	PageID  int64    `json:"page_id"`
	Name    string   `json:"name"`
	Changes []string `json:"changes"`
	Hidden  []string `json:"hidden"`
}

// OutdateEntry is the golden-file view of one pending outdate job.
type OutdateEntry struct {
	Kind   string `json:"kind"`
	PageID int64  `json:"page_id"`
	Slug   string `json:"slug"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step had its expected outcome and every
	// assertion held.
	Pass bool `json:"pass"`

	Steps []StepOutcome `json:"steps"`

	// Histories holds the full history of every file the flow touched.
	Histories map[string][]HistoryEntry `json:"histories"`

	// Outdated lists pending outdate jobs in insertion order.
	Outdated []OutdateEntry `json:"outdated"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Steps:     []StepOutcome{},
		Histories: make(map[string][]HistoryEntry),
		Outdated:  []OutdateEntry{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
