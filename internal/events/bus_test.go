package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan SessionStateChangedEvent, 1)

	unsub := bus.Subscribe(func(e SessionStateChangedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(SessionStateChangedEvent{DeviceID: "usb-1", From: "idle", To: "connecting"})

	got := <-received
	if got.DeviceID != "usb-1" || got.To != "connecting" {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan SessionErrorEvent, 1)

	unsub := bus.Subscribe(func(e SessionErrorEvent) {
		received <- e
	})

	bus.Publish(SessionErrorEvent{DeviceID: "usb-1", Reason: ReasonOpenFailed})
	<-received

	unsub()

	bus.Publish(SessionErrorEvent{DeviceID: "usb-2", Reason: ReasonOpenFailed})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	deviceReceived := make(chan bool, 1)
	errorReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ DeviceEvent) { deviceReceived <- true })
	defer unsub1()
	unsub2 := bus.Subscribe(func(_ SessionErrorEvent) { errorReceived <- true })
	defer unsub2()

	bus.Publish(DeviceEvent{DeviceID: "usb-1", Action: ActionAttached})
	<-deviceReceived

	select {
	case <-errorReceived:
		t.Fatal("error subscriber should not receive DeviceEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	if unsub == nil {
		t.Fatal("Subscribe should return a callable no-op")
	}
	unsub()
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)
	unsub := bus.Subscribe(func(_ DeviceEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(DeviceEvent{Action: ActionConnected, Timestamp: time.Now().Format(time.RFC3339)})
			}
		}()
	}
	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestEventJSONSerialization(t *testing.T) {
	data, err := json.Marshal(SessionErrorEvent{
		DeviceID:  "usb-1",
		Reason:    ReasonNoCompatibleFormat,
		Error:     "no compatible format",
		Timestamp: "2026-01-27T10:30:00Z",
	})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if result["reason"] != ReasonNoCompatibleFormat {
		t.Errorf("reason = %v", result["reason"])
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[DeviceSelectionRequestedEvent](bus, ch)
	defer unsub()

	bus.Publish(DeviceSelectionRequestedEvent{Timestamp: "now"})

	received := <-ch
	if _, ok := received.(DeviceSelectionRequestedEvent); !ok {
		t.Fatalf("Expected DeviceSelectionRequestedEvent, got %T", received)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any)

	unsub := SubscribeToChannel[DeviceEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(DeviceEvent{Action: ActionDetached})
		done <- true
	}()

	<-done
}
