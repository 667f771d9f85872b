package domain

import "strings"

// CanonicalLabel normalises a status or phase label. Labels are matched
// case-insensitively and the dashboard's hyphenated spelling ("in-progress")
// names the same value as the stored one ("in_progress").
func CanonicalLabel(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), "-", "_")
}

// SiteStatus enumerates the operational state of a site.
type SiteStatus string

// Canonical site statuses.
const (
	SiteActive    SiteStatus = "active"
	SiteInactive  SiteStatus = "inactive"
	SiteCompleted SiteStatus = "completed"
)

// Valid reports whether s is a known site status.
func (s SiteStatus) Valid() bool {
	switch s {
	case SiteActive, SiteInactive, SiteCompleted:
		return true
	}
	return false
}

// WorkerStatus enumerates worker availability.
type WorkerStatus string

// Canonical worker statuses.
const (
	WorkerActive   WorkerStatus = "active"
	WorkerInactive WorkerStatus = "inactive"
	WorkerOnLeave  WorkerStatus = "on_leave"
)

// Valid reports whether s is a known worker status.
func (s WorkerStatus) Valid() bool {
	switch s {
	case WorkerActive, WorkerInactive, WorkerOnLeave:
		return true
	}
	return false
}

// MachineStatus enumerates machine condition.
type MachineStatus string

// Canonical machine statuses.
const (
	MachineActive      MachineStatus = "active"
	MachineMaintenance MachineStatus = "maintenance"
	MachineIdle        MachineStatus = "idle"
	MachineBroken      MachineStatus = "broken"
)

// Valid reports whether s is a known machine status.
func (s MachineStatus) Valid() bool {
	switch s {
	case MachineActive, MachineMaintenance, MachineIdle, MachineBroken:
		return true
	}
	return false
}

// StockStatus classifies an item's stock relative to its thresholds.
type StockStatus string

// Derived stock statuses.
const (
	StockLow    StockStatus = "low"
	StockNormal StockStatus = "normal"
	StockHigh   StockStatus = "high"
)

// Priority ranks material requests.
type Priority string

// Canonical request priorities, lowest first.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities; unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

// SubjectKind identifies what a transfer moves.
type SubjectKind string

// Transfer subject kinds.
const (
	SubjectWorker  SubjectKind = "worker"
	SubjectMachine SubjectKind = "machine"
)

// Valid reports whether k is a known subject kind.
func (k SubjectKind) Valid() bool {
	return k == SubjectWorker || k == SubjectMachine
}

// EntityType maps the subject kind onto its stored entity type.
func (k SubjectKind) EntityType() EntityType {
	if k == SubjectMachine {
		return EntityMachine
	}
	return EntityWorker
}

// TaskPhase groups site progress tasks.
type TaskPhase string

// Progress task phases reported by site engineers.
const (
	PhaseDrainage    TaskPhase = "drainage"
	PhaseEarthMoving TaskPhase = "earth_moving"
	PhaseGeneral     TaskPhase = "general"
)

// Valid reports whether p is a known task phase.
func (p TaskPhase) Valid() bool {
	switch p {
	case PhaseDrainage, PhaseEarthMoving, PhaseGeneral:
		return true
	}
	return false
}

// TaskStatus tracks a progress task.
type TaskStatus string

// Progress task statuses.
const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskDelayed    TaskStatus = "delayed"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskDelayed:
		return true
	}
	return false
}

// RequestStatus enumerates the material request lifecycle.
type RequestStatus string

// Material request lifecycle states.
const (
	RequestPending    RequestStatus = "pending"
	RequestApproved   RequestStatus = "approved"
	RequestRejected   RequestStatus = "rejected"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:    {RequestApproved, RequestRejected},
	RequestApproved:   {RequestInProgress},
	RequestInProgress: {RequestCompleted},
	RequestRejected:   nil,
	RequestCompleted:  nil,
}

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// Terminal reports whether no further transitions are accepted.
func (s RequestStatus) Terminal() bool {
	return s == RequestRejected || s == RequestCompleted
}

// CanTransitionTo reports whether next directly follows s.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	return containsStatus(requestTransitions[s], next)
}

// TransferStatus enumerates the transfer lifecycle.
type TransferStatus string

// Transfer lifecycle states.
const (
	TransferPending   TransferStatus = "pending"
	TransferApproved  TransferStatus = "approved"
	TransferInTransit TransferStatus = "in_transit"
	TransferCompleted TransferStatus = "completed"
	TransferRejected  TransferStatus = "rejected"
)

var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferPending:   {TransferApproved, TransferRejected},
	TransferApproved:  {TransferInTransit},
	TransferInTransit: {TransferCompleted},
	TransferCompleted: nil,
	TransferRejected:  nil,
}

// Valid reports whether s is a known transfer status.
func (s TransferStatus) Valid() bool {
	_, ok := transferTransitions[s]
	return ok
}

// Terminal reports whether no further transitions are accepted.
func (s TransferStatus) Terminal() bool {
	return s == TransferCompleted || s == TransferRejected
}

// CanTransitionTo reports whether next directly follows s.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	return containsStatus(transferTransitions[s], next)
}

// TripStatus enumerates supplier trip progress.
type TripStatus string

// Supplier trip states.
const (
	TripScheduled TripStatus = "scheduled"
	TripInTransit TripStatus = "in_transit"
	TripCompleted TripStatus = "completed"
)

var tripTransitions = map[TripStatus][]TripStatus{
	TripScheduled: {TripInTransit},
	TripInTransit: {TripCompleted},
	TripCompleted: nil,
}

// Valid reports whether s is a known trip status.
func (s TripStatus) Valid() bool {
	_, ok := tripTransitions[s]
	return ok
}

// Terminal reports whether the trip is finished.
func (s TripStatus) Terminal() bool {
	return s == TripCompleted
}

// CanTransitionTo reports whether next directly follows s.
func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	return containsStatus(tripTransitions[s], next)
}

// Next returns the single successor of s, if any.
func (s TripStatus) Next() (TripStatus, bool) {
	next := tripTransitions[s]
	if len(next) == 0 {
		return "", false
	}
	return next[0], true
}

func containsStatus[S ~string](values []S, target S) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// UnmarshalText accepts hyphenated labels.
func (s *WorkerStatus) UnmarshalText(text []byte) error {
	*s = WorkerStatus(CanonicalLabel(string(text)))
	return nil
}

// UnmarshalText accepts hyphenated labels.
func (p *TaskPhase) UnmarshalText(text []byte) error {
	*p = TaskPhase(CanonicalLabel(string(text)))
	return nil
}

// UnmarshalText accepts hyphenated labels.
func (s *TaskStatus) UnmarshalText(text []byte) error {
	*s = TaskStatus(CanonicalLabel(string(text)))
	return nil
}

// UnmarshalText accepts hyphenated labels.
func (s *RequestStatus) UnmarshalText(text []byte) error {
	*s = RequestStatus(CanonicalLabel(string(text)))
	return nil
}

// UnmarshalText accepts hyphenated labels.
func (s *TransferStatus) UnmarshalText(text []byte) error {
	*s = TransferStatus(CanonicalLabel(string(text)))
	return nil
}

// UnmarshalText accepts hyphenated labels.
func (s *TripStatus) UnmarshalText(text []byte) error {
	*s = TripStatus(CanonicalLabel(string(text)))
	return nil
}
