package types

import "fmt"

// DealStatus is the canonical status of an on-chain deal, independent of the
// contract revision that reported it.
type DealStatus int

const (
	DealStatusNone DealStatus = iota
	DealStatusProposed
	DealStatusAccepted
	DealStatusActive
	DealStatusCompleted
	DealStatusFinalizing
	DealStatusFinalized
	DealStatusTimedOut
	DealStatusCancelled
)

// DealStatuses lists every canonical status in progression order.
var DealStatuses = []DealStatus{
	DealStatusNone,
	DealStatusProposed,
	DealStatusAccepted,
	DealStatusActive,
	DealStatusCompleted,
	DealStatusFinalizing,
	DealStatusFinalized,
	DealStatusTimedOut,
	DealStatusCancelled,
}

var dealStatusNames = map[DealStatus]string{
	DealStatusNone:       "None",
	DealStatusProposed:   "Proposed",
	DealStatusAccepted:   "Accepted",
	DealStatusActive:     "Active",
	DealStatusCompleted:  "Completed",
	DealStatusFinalizing: "Finalizing",
	DealStatusFinalized:  "Finalized",
	DealStatusTimedOut:   "Timed Out",
	DealStatusCancelled:  "Cancelled",
}

func (s DealStatus) String() string {
	if name, ok := dealStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(s))
}

// Valid reports whether s is one of the canonical statuses.
func (s DealStatus) Valid() bool {
	_, ok := dealStatusNames[s]
	return ok
}

// IsTerminal reports whether no further transition is expected. Pollers stop
// once a terminal status is observed.
func (s DealStatus) IsTerminal() bool {
	switch s {
	case DealStatusFinalized, DealStatusCancelled, DealStatusTimedOut:
		return true
	default:
		return false
	}
}
