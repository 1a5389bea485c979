package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/model"
)

type memorySink struct {
	rows map[string]model.AuditEvent
	err  error
}

func (s *memorySink) Insert(_ context.Context, ev model.AuditEvent) error {
	if s.err != nil {
		return s.err
	}
	if s.rows == nil {
		s.rows = map[string]model.AuditEvent{}
	}
	if _, ok := s.rows[ev.ID]; !ok {
		s.rows[ev.ID] = ev
	}
	return nil
}

func TestHandleStoresEventOnce(t *testing.T) {
	sink := &memorySink{}
	c := &Consumer{Sink: sink, Log: zap.NewNop()}
	ev := NewLifecycleEvent("admin", ActionDeactivated, "64b000000000000000000001", "64b000000000000000000002", "u-1")
	body, _ := json.Marshal(ev)

	for i := 0; i < 2; i++ {
		if err := c.handle(context.Background(), body); err != nil {
			t.Fatalf("handle #%d: %v", i+1, err)
		}
	}
	if len(sink.rows) != 1 {
		t.Fatalf("rows=%d; want 1", len(sink.rows))
	}
	got := sink.rows[ev.ID]
	if got.Entity != "admin" || got.Action != ActionDeactivated || got.ChildID != ev.ChildID || got.Actor != "u-1" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestHandleRejectsPoisonMessages(t *testing.T) {
	c := &Consumer{Sink: &memorySink{}, Log: zap.NewNop()}
	bodies := map[string]string{
		"not json":   "{",
		"no id":      `{"entity":"lab","action":"created","parent_id":"x"}`,
		"no entity":  `{"id":"7f0c2b9a-3a63-4b8e-9a53-2d0f4f0b6c11","action":"created","parent_id":"x"}`,
	}
	for name, body := range bodies {
		if err := c.handle(context.Background(), []byte(body)); !errors.Is(err, errPoison) {
			t.Fatalf("%s: want errPoison, got %v", name, err)
		}
	}
}

func TestHandleReturnsSinkErrors(t *testing.T) {
	boom := errors.New("db down")
	c := &Consumer{Sink: &memorySink{err: boom}, Log: zap.NewNop()}
	body, _ := json.Marshal(NewLifecycleEvent("lab", ActionCreated, "p", "", "u"))
	err := c.handle(context.Background(), body)
	if !errors.Is(err, boom) || errors.Is(err, errPoison) {
		t.Fatalf("want transient sink error, got %v", err)
	}
}
