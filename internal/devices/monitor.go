package devices

import "context"

// ueventMonitor produces kernel uevents until ctx is cancelled. Run closes
// the events channel when it returns.
type ueventMonitor interface {
	Run(ctx context.Context, events chan<- Event) error
	Close() error
}
