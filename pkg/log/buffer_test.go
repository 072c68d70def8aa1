package log

import (
	"bytes"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// blockingTransporter holds deliveries until release is closed.
type blockingTransporter struct {
	release chan struct{}
	mu      sync.Mutex
	got     []string
	closed  bool
}

func (b *blockingTransporter) Name() string { return "blocking" }

func (b *blockingTransporter) Write(e Entry) error {
	<-b.release
	b.mu.Lock()
	b.got = append(b.got, e.Message)
	b.mu.Unlock()
	return nil
}

func (b *blockingTransporter) Close() error {
	b.closed = true
	return nil
}

func TestBuffer_Close_FlushesQueuedEntries(t *testing.T) {
	// Arrange
	var mu sync.Mutex
	var got []string
	b := NewBuffer(10, TransporterFunc(func(e Entry) error {
		mu.Lock()
		got = append(got, e.Message)
		mu.Unlock()
		return nil
	}))

	// Act
	for _, m := range []string{"a", "b", "c"} {
		b.Send(Entry{Message: m})
	}
	b.Close()

	// Assert
	if strings.Join(got, "") != "abc" {
		t.Errorf("delivered %v, want [a b c] in order", got)
	}
}

func TestBuffer_Overflow_DropsOldest(t *testing.T) {
	// Arrange
	tr := &blockingTransporter{release: make(chan struct{})}
	b := NewBuffer(2, tr)

	// The worker takes "first" and blocks on it; the queue then holds two.
	b.Send(Entry{Message: "first"})
	for len(b.queue) > 0 {
		runtime.Gosched()
	}

	// Act
	b.Send(Entry{Message: "second"})
	b.Send(Entry{Message: "third"})
	b.Send(Entry{Message: "fourth"})
	close(tr.release)
	b.Close()

	// Assert
	if b.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", b.Dropped())
	}
	if strings.Join(tr.got, ",") != "first,third,fourth" {
		t.Errorf("delivered %v", tr.got)
	}
	if !tr.closed {
		t.Error("Close should close transporters")
	}
}

func TestBuffer_SendAfterClose_IsIgnored(t *testing.T) {
	var calls int
	b := NewBuffer(1, TransporterFunc(func(Entry) error { calls++; return nil }))
	b.Close()

	b.Send(Entry{Message: "late"})
	b.Close()

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestBuffer_TransporterError_ReportedToErrOut(t *testing.T) {
	var errOut bytes.Buffer
	b := NewBuffer(1, TransporterFunc(func(Entry) error { return errors.New("disk full") }))
	b.errOut = &errOut

	b.Send(Entry{Message: "x"})
	b.Close()

	if !strings.Contains(errOut.String(), "disk full") {
		t.Errorf("errOut = %q", errOut.String())
	}
}
