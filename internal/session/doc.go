// Package session owns the camera preview lifecycle.
//
// A Controller reacts to three asynchronous inputs: device notifications
// from a devices.Source, render target notifications from the platform,
// and user commands from the UI host. It keeps at most one camera open and
// streams it into the render target whenever both are ready.
//
// Session state is guarded by a single mutex. Every camera operation runs
// on one FIFO worker goroutine, so native calls never overlap and never
// run under the mutex. A connect job that finds its generation superseded
// (disconnect, teardown or a newer connect arrived while it was opening)
// destroys what it opened instead of committing it.
package session
