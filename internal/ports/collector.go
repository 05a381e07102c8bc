package ports

// Collector owns a broker session and feeds normalized readings into the
// queue. Start returns once the connection attempt loop is running; the
// collector keeps reconnecting on its own until Stop is called.
type Collector interface {
	Start(out ReadingQueue) error
	Stop() error
}
