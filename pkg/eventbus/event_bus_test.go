package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/finenotify/finenotify/pkg/logging"
)

type statusEvent struct {
	id string
}

type otherEvent struct {
	id string
}

func TestPublisher_Publish_NoSubscribers(t *testing.T) {
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.WarnLevel)
	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *statusEvent) {
		t.Error("should not be called")
	})
	publisher.Publish(&otherEvent{id: "wamid.1"})

	if output := logBuffer.String(); output == "" {
		t.Error("should have logged")
	} else if !strings.Contains(output, "eventbus.Publish: no matching subscribers") {
		t.Errorf("should have contained no matching subscribers but got: %q", output)
	}
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	called := false
	var got string
	publisher.Subscribe(func(e *statusEvent) {
		called = true
		got = e.id
	})
	publisher.Publish(&statusEvent{id: "wamid.1"})
	if !called {
		t.Error("should be called")
	}
	if got != "wamid.1" {
		t.Errorf("expected: %v, got: %v", "wamid.1", got)
	}
}

func TestPublisher_PanicRecovery(t *testing.T) {
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.ErrorLevel)
	publisher := NewEventPublisher(log)

	publisher.Subscribe(func(e *statusEvent) {
		panic("boom")
	})
	secondCalled := false
	publisher.Subscribe(func(e *statusEvent) {
		secondCalled = true
	})

	publisher.Publish(&statusEvent{id: "wamid.2"})

	if !secondCalled {
		t.Error("second subscriber should still run after a panic")
	}
	if !strings.Contains(logBuffer.String(), "panicked") {
		t.Errorf("panic should be logged, got: %q", logBuffer.String())
	}
}

func TestMatchSignature(t *testing.T) {
	if !MatchSignature(func(e *statusEvent) {}, []interface{}{&statusEvent{}}) {
		t.Error("expected true")
	}
	if MatchSignature(func(e *statusEvent) {}, []interface{}{&otherEvent{}}) {
		t.Error("expected false")
	}
	if MatchSignature(func(e *statusEvent) {}, []interface{}{}) {
		t.Error("expected false")
	}
	if MatchSignature(func(e *statusEvent) {}, []interface{}{&statusEvent{}, &statusEvent{}}) {
		t.Error("expected false")
	}
}
