package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/revlog/internal/revision"
)

// Scenario defines a revision lifecycle scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SiteID is the site every page and file belongs to. Defaults to 1.
	SiteID int64 `yaml:"site_id,omitempty"`

	// Pages are registered before the flow runs.
	Pages []PageSpec `yaml:"pages"`

	// Flow contains the lifecycle operations, executed in order, each in
	// its own transaction.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final histories.
	Assertions []Assertion `yaml:"assertions"`
}

// PageSpec registers one page.
type PageSpec struct {
	PageID int64  `yaml:"page_id"`
	Slug   string `yaml:"slug"`
}

// Step is one lifecycle operation.
type Step struct {
	// Op is one of create, update, delete, restore, hide.
	Op string `yaml:"op"`

	// File is the file id.
	File string `yaml:"file"`

	// Page is the page the file is created on (create) or addressed at
	// (every other op). Defaults to the page of the file's head.
	Page int64 `yaml:"page,omitempty"`

	// Token selects the optimistic lock token: "head" (default) or "stale".
	Token string `yaml:"token,omitempty"`

	User     int64  `yaml:"user,omitempty"`
	Comments string `yaml:"comments,omitempty"`

	Name      *string        `yaml:"name,omitempty"`
	NewPage   *int64         `yaml:"new_page,omitempty"`
	Blob      *BlobSpec      `yaml:"blob,omitempty"`
	Licensing map[string]any `yaml:"licensing,omitempty"`

	// Revision is the revision number targeted by hide.
	Revision *int32 `yaml:"revision,omitempty"`

	// Hidden is the field set applied by hide.
	Hidden []string `yaml:"hidden,omitempty"`

	// Expect is "ok" (default), "noop" or an error code.
	Expect string `yaml:"expect,omitempty"`
}

// BlobSpec describes file content. Hash is hex encoded.
type BlobSpec struct {
	Hash string `yaml:"hash"`
	Size int64  `yaml:"size"`
	Mime string `yaml:"mime"`
}

// Assertion validates the final state of a file or page.
type Assertion struct {
	// Type is one of history, count, absent, outdated, hidden.
	Type string `yaml:"type"`

	File string `yaml:"file,omitempty"`

	// Page addresses the file (count, absent) or names the page (outdated).
	Page int64 `yaml:"page,omitempty"`

	// Types are the expected revision types in order (history).
	Types []string `yaml:"types,omitempty"`

	// Changes are the expected change sets in order (history, optional).
	Changes [][]string `yaml:"changes,omitempty"`

	// Count is the expected number of revisions (count).
	Count int `yaml:"count,omitempty"`

	// Kind is the outdate job kind (outdated).
	Kind string `yaml:"kind,omitempty"`

	// Revision and Hidden check a redaction (hidden).
	Revision *int32  `yaml:"revision,omitempty"`
	Hidden   []string `yaml:"hidden,omitempty"`
}

// Operation constants.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpRestore = "restore"
	OpHide    = "hide"
)

// Assertion type constants.
const (
	AssertHistory  = "history"
	AssertCount    = "count"
	AssertAbsent   = "absent"
	AssertOutdated = "outdated"
	AssertHidden   = "hidden"
)

// Step outcomes besides error codes.
const (
	OutcomeOK   = "ok"
	OutcomeNoop = "noop"
)

var validOutcomes = []string{
	OutcomeOK,
	OutcomeNoop,
	string(revision.ErrCodeNotFound),
	string(revision.ErrCodeConflict),
	string(revision.ErrCodeBadRequest),
	string(revision.ErrCodeCannotHideLatestRevision),
	string(revision.ErrCodeInternal),
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML held in memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.SiteID == 0 {
		scenario.SiteID = 1
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, p := range s.Pages {
		if p.PageID <= 0 {
			return fmt.Errorf("pages[%d]: page_id must be positive", i)
		}
		if p.Slug == "" {
			return fmt.Errorf("pages[%d]: slug is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single flow step based on its op.
func validateStep(index int, st *Step) error {
	if st.File == "" {
		return fmt.Errorf("flow[%d]: file is required", index)
	}

	if st.Token != "" && st.Token != "head" && st.Token != "stale" {
		return fmt.Errorf("flow[%d]: token must be head or stale, got %q", index, st.Token)
	}

	if st.Expect != "" && !slices.Contains(validOutcomes, st.Expect) {
		return fmt.Errorf("flow[%d]: unknown expected outcome %q", index, st.Expect)
	}

	if st.Blob != nil {
		if _, err := hex.DecodeString(st.Blob.Hash); err != nil {
			return fmt.Errorf("flow[%d]: blob.hash must be hex: %w", index, err)
		}
	}

	switch st.Op {
	case OpCreate:
		if st.Page <= 0 {
			return fmt.Errorf("flow[%d]: page is required for create", index)
		}
		if st.Name == nil {
			return fmt.Errorf("flow[%d]: name is required for create", index)
		}
		if st.Blob == nil {
			return fmt.Errorf("flow[%d]: blob is required for create", index)
		}
	case OpUpdate, OpDelete, OpRestore:
	case OpHide:
		if st.Revision == nil {
			return fmt.Errorf("flow[%d]: revision is required for hide", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, st.Op)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertHistory:
		if a.File == "" {
			return fmt.Errorf("assertions[%d]: file is required for history", index)
		}
		if len(a.Types) == 0 {
			return fmt.Errorf("assertions[%d]: types list is required for history", index)
		}
		if a.Changes != nil && len(a.Changes) != len(a.Types) {
			return fmt.Errorf("assertions[%d]: changes must have one entry per revision", index)
		}
	case AssertCount:
		if a.File == "" {
			return fmt.Errorf("assertions[%d]: file is required for count", index)
		}
		if a.Count <= 0 {
			return fmt.Errorf("assertions[%d]: count must be positive (use absent for missing files)", index)
		}
	case AssertAbsent:
		if a.File == "" || a.Page <= 0 {
			return fmt.Errorf("assertions[%d]: file and page are required for absent", index)
		}
	case AssertOutdated:
		if a.Kind == "" || a.Page <= 0 {
			return fmt.Errorf("assertions[%d]: kind and page are required for outdated", index)
		}
	case AssertHidden:
		if a.File == "" || a.Revision == nil {
			return fmt.Errorf("assertions[%d]: file and revision are required for hidden", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
