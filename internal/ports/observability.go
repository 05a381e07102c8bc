package ports

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)

	// RecordDrop counts a message rejected before or during processing
	// (malformed payload, missing ids, full queue, store failure).
	RecordDrop(topic string, err error)
}

type Field struct {
	Key   string
	Value any
}
