// Package web exposes the read-only status API: which workflows are in
// flight, which stage and run each one is at, and its recent messages.
package web

import (
	"sync"
	"time"
)

// messageLimit bounds the per-workflow message log; the oldest entry is
// dropped when a new one would exceed it.
const messageLimit = 25

// Message is one operator-facing progress or error message.
type Message struct {
	At      time.Time `json:"at"`
	IsError bool      `json:"isError"`
	Text    string    `json:"text"`
}

// PlateSummary is one deck plate as shown to the operator: top of the
// stack first.
type PlateSummary struct {
	Name          string `json:"name"`
	Barcode       string `json:"barcode,omitempty"`
	StackPosition int    `json:"stackPosition"`
}

// WorkflowStatus is the full status of one workflow.
type WorkflowStatus struct {
	GroupID       string         `json:"groupId"`
	StandardsType string         `json:"standardsType"`
	Plates        []PlateSummary `json:"plates"`
	Stage         string         `json:"stage"`
	State         string         `json:"state"`
	Outcome       string         `json:"outcome,omitempty"`
	Messages      []Message      `json:"messages"`
}

// WorkflowSummary is the list-endpoint view of a workflow.
type WorkflowSummary struct {
	GroupID       string `json:"groupId"`
	StandardsType string `json:"standardsType"`
	Stage         string `json:"stage"`
	State         string `json:"state"`
	Outcome       string `json:"outcome,omitempty"`
}

type workflowEntry struct {
	status   WorkflowStatus
	messages []Message
}

// Registry is the in-process store behind the status API. The workflow
// and monitor write to it; handlers only read.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*workflowEntry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]*workflowEntry{}}
}

// Register announces a new workflow. Re-registering a group id resets
// its entry.
func (r *Registry) Register(groupID, standardsType string, plates []PlateSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[groupID]; !ok {
		r.order = append(r.order, groupID)
	}
	r.entries[groupID] = &workflowEntry{
		status: WorkflowStatus{
			GroupID:       groupID,
			StandardsType: standardsType,
			Plates:        plates,
		},
	}
}

// SetStage records the stage and state a workflow is at.
func (r *Registry) SetStage(groupID, stage, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[groupID]; ok {
		e.status.Stage = stage
		e.status.State = state
	}
}

// SetOutcome records the terminal outcome of a workflow.
func (r *Registry) SetOutcome(groupID, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[groupID]; ok {
		e.status.Outcome = outcome
	}
}

// AddMessage appends to the workflow's bounded message log.
func (r *Registry) AddMessage(groupID string, isError bool, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[groupID]
	if !ok {
		return
	}
	e.messages = append(e.messages, Message{At: time.Now(), IsError: isError, Text: text})
	if messageLimit < len(e.messages) {
		e.messages = e.messages[len(e.messages)-messageLimit:]
	}
}

// Workflows lists all registered workflows, oldest first.
func (r *Registry) Workflows() []WorkflowSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summaries := make([]WorkflowSummary, 0, len(r.order))
	for _, id := range r.order {
		s := r.entries[id].status
		summaries = append(summaries, WorkflowSummary{
			GroupID:       s.GroupID,
			StandardsType: s.StandardsType,
			Stage:         s.Stage,
			State:         s.State,
			Outcome:       s.Outcome,
		})
	}
	return summaries
}

// Workflow returns the full status of one workflow.
func (r *Registry) Workflow(groupID string) (WorkflowStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[groupID]
	if !ok {
		return WorkflowStatus{}, false
	}
	status := e.status
	status.Messages = make([]Message, len(e.messages))
	copy(status.Messages, e.messages)
	return status, true
}
