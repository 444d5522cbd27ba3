package protocol

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
)

type Direction string

const (
	// DirectionIncoming is a request or notification from the editor.
	DirectionIncoming Direction = "incoming"
	// DirectionOutgoing is a response to an incoming request.
	DirectionOutgoing Direction = "outgoing"
	// DirectionCallback is a notification or request pushed by the server.
	DirectionCallback Direction = "callback"
)

// RPCMessage is one tracked message. Params holds request parameters and
// Result holds response results.
type RPCMessage struct {
	Direction Direction
	Method    string
	ID        string
	Params    json.RawMessage
	Result    json.RawMessage
	Time      time.Time
}

// Decode unmarshals the parameters of a request message into v.
func (m RPCMessage) Decode(v any) error {
	return json.Unmarshal(m.Params, v)
}

// RPCTracker records the traffic of a server. It is meant for tests, which
// wait on it for notifications the server pushes.
type RPCTracker struct {
	mu sync.RWMutex

	messages     []RPCMessage
	subs         map[chan RPCMessage]struct{}
	knownMethods map[string]string
}

var (
	_ jrpc2.RPCLogger   = (*RPCTracker)(nil)
	_ CallbackRPCLogger = (*RPCTracker)(nil)
)

func NewRPCTracker() *RPCTracker {
	return &RPCTracker{
		subs:         make(map[chan RPCMessage]struct{}),
		knownMethods: make(map[string]string),
	}
}

func (t *RPCTracker) LogRequest(ctx context.Context, req *jrpc2.Request) {
	t.mu.Lock()
	t.knownMethods[req.ID()] = req.Method()
	t.mu.Unlock()

	t.Track(RPCMessage{
		Direction: DirectionIncoming,
		Method:    req.Method(),
		ID:        req.ID(),
		Params:    json.RawMessage(req.ParamString()),
	})
}

func (t *RPCTracker) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	t.mu.RLock()
	method := t.knownMethods[resp.ID()]
	t.mu.RUnlock()

	t.Track(RPCMessage{
		Direction: DirectionOutgoing,
		Method:    method,
		ID:        resp.ID(),
		Result:    json.RawMessage(resp.ResultString()),
	})
}

func (t *RPCTracker) LogCallbackRequestRaw(ctx context.Context, method string, params any) {
	raw, err := json.Marshal(params)
	if err != nil {
		return
	}
	t.Track(RPCMessage{
		Direction: DirectionCallback,
		Method:    method,
		Params:    raw,
	})
}

func (t *RPCTracker) LogCallbackRequest(ctx context.Context, req *jrpc2.Request) {
	t.Track(RPCMessage{
		Direction: DirectionCallback,
		Method:    req.Method(),
		ID:        req.ID(),
		Params:    json.RawMessage(req.ParamString()),
	})
}

func (t *RPCTracker) LogCallbackResponse(ctx context.Context, res *jrpc2.Response) {
	t.Track(RPCMessage{
		Direction: DirectionCallback,
		ID:        res.ID(),
		Result:    json.RawMessage(res.ResultString()),
	})
}

// Track stamps msg and hands it to every subscriber.
func (t *RPCTracker) Track(msg RPCMessage) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	msg.Time = time.Now()
	t.messages = append(t.messages, msg)

	for ch := range t.subs {
		select {
		case ch <- msg:
		default:
			// slow subscriber
		}
	}
}

// Messages returns every tracked message in arrival order.
func (t *RPCTracker) Messages() []RPCMessage {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.messages)
}

// MessagesLike returns the tracked messages accepted by predicate.
func (t *RPCTracker) MessagesLike(predicate func(RPCMessage) bool) []RPCMessage {
	return slices.DeleteFunc(t.Messages(), func(msg RPCMessage) bool {
		return !predicate(msg)
	})
}

// Subscribe returns a channel receiving messages tracked from now on, and
// the tracked messages so far. The returned function unsubscribes.
func (t *RPCTracker) Subscribe(bufSize int) (<-chan RPCMessage, []RPCMessage, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan RPCMessage, bufSize)
	t.subs[ch] = struct{}{}

	return ch, slices.Clone(t.messages), func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, ch)
	}
}

// WaitForMessages blocks until count messages accepted by predicate have been
// tracked, or the timeout passes. It reports whether count was reached.
func (t *RPCTracker) WaitForMessages(count int, timeout time.Duration, predicate func(RPCMessage) bool) ([]RPCMessage, bool) {
	ch, seen, unsub := t.Subscribe(256)
	defer unsub()

	result := slices.DeleteFunc(seen, func(msg RPCMessage) bool { return !predicate(msg) })
	if len(result) >= count {
		return result, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-ch:
			if predicate(msg) {
				result = append(result, msg)
			}
			if len(result) >= count {
				return result, true
			}
		case <-timer.C:
			return result, false
		}
	}
}

// IsCallback matches server pushed messages for method.
func IsCallback(method string) func(RPCMessage) bool {
	return func(msg RPCMessage) bool {
		return msg.Direction == DirectionCallback && msg.Method == method
	}
}
