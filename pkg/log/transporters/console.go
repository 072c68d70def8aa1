package transporters

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"twitfetch/pkg/log"
)

// Console writes human-readable lines, one per entry:
//
//	15:04:05 INFO  message key=value key=value
type Console struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewConsole creates a console transporter that writes to os.Stderr,
// leaving stdout free for command output.
func NewConsole() *Console {
	return &Console{writer: os.Stderr}
}

// NewConsoleWithWriter creates a console transporter with a custom writer.
func NewConsoleWithWriter(w io.Writer) *Console {
	return &Console{writer: w}
}

// Name returns the transporter identifier.
func (c *Console) Name() string {
	return "console"
}

// Write formats the entry and writes it as a single line.
func (c *Console) Write(entry log.Entry) error {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Local().Format("15:04:05"))
	fmt.Fprintf(&b, " %-5s %s", entry.Level.String(), entry.Message)

	if entry.RunID != "" {
		fmt.Fprintf(&b, " run=%s", entry.RunID)
	}

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	b.WriteByte('\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.writer, b.String())
	return err
}

// Close is a no-op.
func (c *Console) Close() error {
	return nil
}
