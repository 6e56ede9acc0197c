package events

// Event type constants for kelindar/event.
const (
	TypeDevice uint32 = iota + 1
	TypeSessionStateChanged
	TypeSessionError
	TypeDeviceSelectionRequested
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// Device actions carried by DeviceEvent.
const (
	ActionAttached     = "attached"
	ActionConnected    = "connected"
	ActionDisconnected = "disconnected"
	ActionDetached     = "detached"
)

// DeviceEvent reports a notification from the device event source.
type DeviceEvent struct {
	DeviceID  string `json:"device_id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for DeviceEvent.
func (e DeviceEvent) Type() uint32 { return TypeDevice }

// SessionStateChangedEvent is published on every controller state transition.
type SessionStateChangedEvent struct {
	DeviceID  string `json:"device_id,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
	Format    string `json:"format,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// Session error reasons.
const (
	ReasonTransportInvalid   = "transport_invalid"
	ReasonOpenFailed         = "open_failed"
	ReasonNoCompatibleFormat = "no_compatible_format"
	ReasonStartFailed        = "start_failed"
	ReasonStreamEnded        = "stream_ended"
)

// SessionErrorEvent is a non-fatal notification that a connect attempt
// failed, a preview could not start, or a running preview stopped on its
// own.
type SessionErrorEvent struct {
	DeviceID  string `json:"device_id"`
	Reason    string `json:"reason"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for SessionErrorEvent.
func (e SessionErrorEvent) Type() uint32 { return TypeSessionError }

// DeviceSelectionRequestedEvent asks the UI host to show its device picker.
type DeviceSelectionRequestedEvent struct {
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for DeviceSelectionRequestedEvent.
func (e DeviceSelectionRequestedEvent) Type() uint32 { return TypeDeviceSelectionRequested }
