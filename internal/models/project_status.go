package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ProjectStatus is the lifecycle state of a thesis project. The numeric values are
// persisted and ordered; range comparisons on them are meaningful.
type ProjectStatus int

const (
	StatusDraft                ProjectStatus = 0
	StatusPendingLanguageCheck ProjectStatus = 10
	StatusLanguageCheck        ProjectStatus = 11
	StatusPendingPlagiarism    ProjectStatus = 20
	StatusPlagiarismOngoing    ProjectStatus = 21
	StatusPlagiarism           ProjectStatus = 22
	StatusEvaluation           ProjectStatus = 30
	StatusPendingApproval      ProjectStatus = 40
	StatusApproved             ProjectStatus = 41
	StatusDenied               ProjectStatus = 42
)

type statusInfo struct {
	code         string
	label        string
	predecessors []ProjectStatus
}

var statusTable = map[ProjectStatus]statusInfo{
	StatusDraft:                {code: "DRAFT", label: "Draft"},
	StatusPendingLanguageCheck: {code: "PENDING_LANGUAGE_CHECK", label: "Pending language check", predecessors: []ProjectStatus{StatusDraft}},
	StatusLanguageCheck:        {code: "LANGUAGE_CHECK", label: "Language checked", predecessors: []ProjectStatus{StatusPendingLanguageCheck}},
	StatusPendingPlagiarism:    {code: "PENDING_PLAGIARISM", label: "Pending plagiarism", predecessors: []ProjectStatus{StatusLanguageCheck}},
	StatusPlagiarismOngoing:    {code: "PLAGIARISM_ONGOING", label: "Plagiarism ongoing", predecessors: []ProjectStatus{StatusPendingPlagiarism}},
	StatusPlagiarism:           {code: "PLAGIARISM", label: "Plagiarism completed", predecessors: []ProjectStatus{StatusPlagiarismOngoing}},
	StatusEvaluation:           {code: "EVALUATION", label: "Evaluation ongoing", predecessors: []ProjectStatus{StatusPlagiarism}},
	StatusPendingApproval:      {code: "PENDING_APPROVAL", label: "Pending dean approval", predecessors: []ProjectStatus{StatusEvaluation}},
	StatusApproved:             {code: "APPROVED", label: "Approved", predecessors: []ProjectStatus{StatusPendingApproval}},
	StatusDenied:               {code: "DENIED", label: "Denied", predecessors: []ProjectStatus{StatusPendingApproval}},
}

// successors is derived from statusTable once the table has been validated.
var successors map[ProjectStatus][]ProjectStatus

func init() {
	if err := validateStatusTable(statusTable); err != nil {
		panic(err)
	}
	successors = make(map[ProjectStatus][]ProjectStatus, len(statusTable))
	for to, info := range statusTable {
		for _, from := range info.predecessors {
			successors[from] = append(successors[from], to)
		}
	}
	for from := range successors {
		list := successors[from]
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	}
}

// validateStatusTable rejects unknown predecessors, backward edges and
// unreachable states. Only DRAFT may lack predecessors.
func validateStatusTable(table map[ProjectStatus]statusInfo) error {
	if _, ok := table[StatusDraft]; !ok {
		return fmt.Errorf("status table: initial state DRAFT missing")
	}
	codes := make(map[string]ProjectStatus, len(table))
	for status, info := range table {
		if info.code == "" {
			return fmt.Errorf("status table: %d has no code", int(status))
		}
		if other, dup := codes[info.code]; dup {
			return fmt.Errorf("status table: code %s used by %d and %d", info.code, int(other), int(status))
		}
		codes[info.code] = status
		if status == StatusDraft {
			if len(info.predecessors) > 0 {
				return fmt.Errorf("status table: DRAFT cannot have predecessors")
			}
			continue
		}
		if len(info.predecessors) == 0 {
			return fmt.Errorf("status table: %s is unreachable", info.code)
		}
		for _, p := range info.predecessors {
			if _, ok := table[p]; !ok {
				return fmt.Errorf("status table: %s lists unknown predecessor %d", info.code, int(p))
			}
			if p >= status {
				return fmt.Errorf("status table: %s lists non-earlier predecessor %d", info.code, int(p))
			}
		}
	}
	return nil
}

// Valid reports whether s is a declared status.
func (s ProjectStatus) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

// Code returns the stable identifier, e.g. PENDING_LANGUAGE_CHECK.
func (s ProjectStatus) Code() string {
	if info, ok := statusTable[s]; ok {
		return info.code
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// Label returns the human readable name.
func (s ProjectStatus) Label() string {
	if info, ok := statusTable[s]; ok {
		return info.label
	}
	return s.Code()
}

func (s ProjectStatus) String() string {
	return s.Code()
}

// Predecessors returns the states a project may be in right before entering s.
func (s ProjectStatus) Predecessors() []ProjectStatus {
	return append([]ProjectStatus(nil), statusTable[s].predecessors...)
}

// Successors returns the states reachable from s in one transition.
func (s ProjectStatus) Successors() []ProjectStatus {
	return append([]ProjectStatus(nil), successors[s]...)
}

// Terminal reports whether no transition leaves s.
func (s ProjectStatus) Terminal() bool {
	return s.Valid() && len(successors[s]) == 0
}

// CanTransition reports whether from is a declared predecessor of to.
func CanTransition(from, to ProjectStatus) bool {
	info, ok := statusTable[to]
	if !ok {
		return false
	}
	for _, p := range info.predecessors {
		if p == from {
			return true
		}
	}
	return false
}

// ParseProjectStatus accepts a status code (case-insensitive).
func ParseProjectStatus(raw string) (ProjectStatus, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	for status, info := range statusTable {
		if info.code == code {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown project status %q", raw)
}

// MarshalJSON encodes the status as its code.
func (s ProjectStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Code())
}

// UnmarshalJSON accepts the code form and, for cached payloads, the numeric form.
func (s *ProjectStatus) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		parsed, err := ParseProjectStatus(code)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("project status must be a code or number: %w", err)
	}
	if !ProjectStatus(n).Valid() {
		return fmt.Errorf("unknown project status %d", n)
	}
	*s = ProjectStatus(n)
	return nil
}
