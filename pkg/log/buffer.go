package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Buffer delivers entries to transporters on a background goroutine.
// When full it drops the oldest queued entry, so logging never blocks
// the caller.
type Buffer struct {
	queue        chan Entry
	transporters []Transporter
	errOut       io.Writer

	dropped atomic.Int64
	closed  atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewBuffer starts a buffer holding up to capacity pending entries.
func NewBuffer(capacity int, transporters ...Transporter) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	b := &Buffer{
		queue:        make(chan Entry, capacity),
		transporters: transporters,
		errOut:       os.Stderr,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go b.run()
	return b
}

// Send queues entry. It is safe for concurrent use and a no-op after Close.
func (b *Buffer) Send(entry Entry) {
	if b.closed.Load() {
		return
	}
	for attempt := 0; attempt < 2; attempt++ {
		select {
		case b.queue <- entry:
			return
		default:
		}
		select {
		case <-b.queue:
			b.dropped.Add(1)
		default:
		}
	}
	b.dropped.Add(1)
}

// Dropped returns how many entries were discarded on overflow.
func (b *Buffer) Dropped() int64 {
	return b.dropped.Load()
}

// Close stops delivery after flushing queued entries, then closes the
// transporters. Safe to call more than once.
func (b *Buffer) Close() {
	b.once.Do(func() {
		b.closed.Store(true)
		close(b.stop)
		<-b.done

		for {
			select {
			case entry := <-b.queue:
				b.deliver(entry)
			default:
				b.closeTransporters()
				return
			}
		}
	})
}

func (b *Buffer) run() {
	defer close(b.done)
	for {
		select {
		case entry := <-b.queue:
			b.deliver(entry)
		case <-b.stop:
			return
		}
	}
}

func (b *Buffer) deliver(entry Entry) {
	for _, t := range b.transporters {
		if err := t.Write(entry); err != nil {
			fmt.Fprintf(b.errOut, "log transporter %q failed: %v\n", t.Name(), err)
		}
	}
}

func (b *Buffer) closeTransporters() {
	for _, t := range b.transporters {
		if err := t.Close(); err != nil {
			fmt.Fprintf(b.errOut, "log transporter %q close failed: %v\n", t.Name(), err)
		}
	}
}
