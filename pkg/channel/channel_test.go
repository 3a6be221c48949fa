package channel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vanderheijden86/a11ydeck/pkg/message"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type recorder struct {
	mu   sync.Mutex
	msgs []message.Message
	from []Origin
}

func (r *recorder) handler() Handler {
	return func(msg message.Message, from Origin) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.msgs = append(r.msgs, msg)
		r.from = append(r.from, from)
		return nil
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recorder) last() (message.Message, Origin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msgs[len(r.msgs)-1], r.from[len(r.from)-1]
}

func TestBroadcastExcludesSender(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	panel := bus.Endpoint(EndpointPanel)
	background := bus.Endpoint(EndpointBackground)
	content := bus.Endpoint(ContentEndpoint(7))

	var panelRec, bgRec, contentRec recorder
	panel.Subscribe(panelRec.handler())
	background.Subscribe(bgRec.handler())
	content.Subscribe(contentRec.handler())

	if err := panel.Send(message.New(message.GetCurrentURL{})); err != nil {
		t.Fatalf("send: %v", err)
	}

	waitFor(t, "background delivery", func() bool { return bgRec.count() == 1 })

	time.Sleep(20 * time.Millisecond)
	if panelRec.count() != 0 {
		t.Error("broadcast must not loop back to the sender")
	}
	if contentRec.count() != 0 {
		t.Error("broadcast must not reach content endpoints; they are per-tab targets")
	}

	_, from := bgRec.last()
	if from.Endpoint != EndpointPanel {
		t.Errorf("origin = %q, want panel", from.Endpoint)
	}
}

func TestSendToTargetsSingleEndpoint(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	background := bus.Endpoint(EndpointBackground)
	tab7 := bus.Endpoint(ContentEndpoint(7))
	tab9 := bus.Endpoint(ContentEndpoint(9))

	var rec7, rec9 recorder
	tab7.Subscribe(rec7.handler())
	tab9.Subscribe(rec9.handler())

	msg := message.New(message.HighlightIssue{IssueID: "x"})
	if err := background.SendTo(ContentEndpoint(7), msg); err != nil {
		t.Fatalf("sendTo: %v", err)
	}

	waitFor(t, "tab 7 delivery", func() bool { return rec7.count() == 1 })
	time.Sleep(20 * time.Millisecond)
	if rec9.count() != 0 {
		t.Error("targeted send leaked to another tab")
	}

	if err := background.SendTo(ContentEndpoint(42), msg); err == nil {
		t.Error("sendTo unknown endpoint should error")
	}
}

func TestSendRejectsInvalidMessage(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	panel := bus.Endpoint(EndpointPanel)

	bad := message.Message{Type: message.TypeScanRequest, Data: message.ScanRequest{}}
	if err := panel.Send(bad); err == nil {
		t.Error("Send accepted an invalid message")
	}
	if err := panel.SendTo(EndpointBackground, bad); err == nil {
		t.Error("SendTo accepted an invalid message")
	}
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	panel := bus.Endpoint(EndpointPanel)
	background := bus.Endpoint(EndpointBackground)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		background.Subscribe(func(message.Message, Origin) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	panel.Send(message.New(message.GetCurrentURL{}))
	waitFor(t, "all handlers", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "second", "third"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHandlerFailureDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	panel := bus.Endpoint(EndpointPanel)
	background := bus.Endpoint(EndpointBackground)

	var rec recorder
	background.Subscribe(func(message.Message, Origin) error {
		return errors.New("boom")
	})
	background.Subscribe(func(message.Message, Origin) error {
		panic("worse")
	})
	background.Subscribe(rec.handler())

	panel.Send(message.New(message.GetCurrentURL{}))
	waitFor(t, "surviving handler", func() bool { return rec.count() == 1 })
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	panel := bus.Endpoint(EndpointPanel)
	background := bus.Endpoint(EndpointBackground)

	var rec recorder
	unsubscribe := background.Subscribe(rec.handler())
	unsubscribe()
	unsubscribe() // second call is a no-op

	panel.Send(message.New(message.GetCurrentURL{}))
	time.Sleep(30 * time.Millisecond)
	if rec.count() != 0 {
		t.Error("unsubscribed handler still invoked")
	}
}

func TestPortConnectAndPost(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var mu sync.Mutex
	var connected []*Port
	bus.OnConnect(func(p *Port) {
		mu.Lock()
		connected = append(connected, p)
		mu.Unlock()
	})

	port := bus.Connect("app")
	mu.Lock()
	if len(connected) != 1 || connected[0] != port {
		t.Fatalf("connect callback saw %d ports", len(connected))
	}
	mu.Unlock()

	var got []message.Message
	var gotMu sync.Mutex
	port.OnMessage(func(msg message.Message) {
		gotMu.Lock()
		got = append(got, msg)
		gotMu.Unlock()
	})

	if err := port.Post(message.New(message.CurrentURLUpdate{URL: "https://a.com"})); err != nil {
		t.Fatalf("post: %v", err)
	}
	waitFor(t, "port delivery", func() bool {
		gotMu.Lock()
		defer gotMu.Unlock()
		return len(got) == 1
	})
}

func TestPortDisconnect(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	port := bus.Connect("app")

	fired := 0
	port.OnDisconnect(func() { fired++ })
	port.Disconnect()
	port.Disconnect() // idempotent
	if fired != 1 {
		t.Fatalf("disconnect fired %d times, want 1", fired)
	}

	if err := port.Post(message.New(message.CurrentURLUpdate{URL: "https://a.com"})); err == nil {
		t.Error("post to disconnected port should error")
	}

	// Registering after close fires immediately.
	late := 0
	port.OnDisconnect(func() { late++ })
	if late != 1 {
		t.Error("late OnDisconnect should fire immediately on a closed port")
	}
}

func TestOriginHelpers(t *testing.T) {
	o := Origin{Endpoint: ContentEndpoint(12)}
	if !o.FromContent() {
		t.Error("content origin not recognized")
	}
	if id, _ := o.TabID(); id != 12 {
		t.Errorf("tab id = %d, want 12", id)
	}
	if (Origin{Endpoint: EndpointPanel}).FromContent() {
		t.Error("panel origin misclassified as content")
	}
}
