package log

// Transporter is a log destination. Write is called from a single
// delivery goroutine per logger.
type Transporter interface {
	Name() string
	Write(entry Entry) error
	// Close releases resources. Write is not called afterwards.
	Close() error
}

// TransporterFunc adapts a function to a Transporter with a no-op Close.
type TransporterFunc func(entry Entry) error

func (f TransporterFunc) Name() string            { return "func" }
func (f TransporterFunc) Write(entry Entry) error { return f(entry) }
func (f TransporterFunc) Close() error            { return nil }
