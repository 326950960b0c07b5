package types

import (
	"fmt"
	"time"
)

// EntryState is the lifecycle state of one upload entry.
type EntryState int

const (
	EntrySelected EntryState = iota
	EntryStaging
	EntryStaged
	EntryStageFailed
	EntrySubmitting
	EntrySubmitted
	EntrySubmitFailed
	EntrySubmitAmbiguous
	EntryRecorded
	EntryPersistFailed
)

var entryStateNames = map[EntryState]string{
	EntrySelected:        "Selected",
	EntryStaging:         "Staging",
	EntryStaged:          "Staged",
	EntryStageFailed:     "StageFailed",
	EntrySubmitting:      "Submitting",
	EntrySubmitted:       "Submitted",
	EntrySubmitFailed:    "SubmitFailed",
	EntrySubmitAmbiguous: "SubmitAmbiguous",
	EntryRecorded:        "Recorded",
	EntryPersistFailed:   "PersistFailed",
}

func (s EntryState) String() string {
	if name, ok := entryStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("EntryState(%d)", int(s))
}

// InFlight reports whether a remote operation for the entry is pending.
func (s EntryState) InFlight() bool {
	return s == EntryStaging || s == EntrySubmitting
}

// HasDeal reports whether a deal exists (or may exist) on chain for the entry.
func (s EntryState) HasDeal() bool {
	switch s {
	case EntrySubmitted, EntrySubmitAmbiguous, EntryRecorded, EntryPersistFailed:
		return true
	default:
		return false
	}
}

// Entry is a single file moving through select, stage, submit and record.
type Entry struct {
	ID        string
	FilePath  string
	FileName  string
	FileSize  int64
	State     EntryState
	Proposal  DealProposal
	Staging   *StagingResult `json:",omitempty"`
	DealID    DealID
	TxHash    string
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy safe to hand to callers.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Staging != nil {
		s := *e.Staging
		c.Staging = &s
	}
	return &c
}
