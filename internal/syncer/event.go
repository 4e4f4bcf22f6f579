package syncer

import "fmt"

// Event is the closed set of reconciliation lifecycle events. Each drain
// cycle emits one StartEvent, a ProgressEvent per completed entry, and a
// terminal CompleteEvent or ErrorEvent.
type Event interface {
	event()
	String() string
}

// StartEvent opens a drain cycle.
type StartEvent struct {
	Total int // pending entries at the start of the cycle
}

// ProgressEvent reports one entry successfully replayed.
type ProgressEvent struct {
	Progress int
	Total    int
}

// CompleteEvent closes a cycle in which every entry replayed successfully.
type CompleteEvent struct {
	Synced int
}

// ErrorEvent closes a cycle in which at least one entry failed. Failed
// entries stay in the queue for inspection and manual retry.
type ErrorEvent struct {
	Synced int
	Failed int
}

func (StartEvent) event()    {}
func (ProgressEvent) event() {}
func (CompleteEvent) event() {}
func (ErrorEvent) event()    {}

func (e StartEvent) String() string {
	return fmt.Sprintf("syncing %d pending operations", e.Total)
}

func (e ProgressEvent) String() string {
	return fmt.Sprintf("synced %d/%d", e.Progress, e.Total)
}

func (e CompleteEvent) String() string {
	if e.Synced == 0 {
		return "no pending operations"
	}
	return fmt.Sprintf("%d operations synced", e.Synced)
}

func (e ErrorEvent) String() string {
	return fmt.Sprintf("%d synced, %d failed", e.Synced, e.Failed)
}
