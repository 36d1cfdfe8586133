package climate

// Store is the contract the in-memory raw and hourly buffers satisfy. Append
// and Roll are only ever called from the pipeline's ingestion task; the read
// methods must be safe from any goroutine and return copies.
type Store interface {
	// Append adds r to the raw buffer.
	Append(r Reading)
	// Roll appends m to the hourly ring buffer and clears the raw buffer.
	Roll(m HourlyMeasurement)
	// Reset discards both buffers.
	Reset()

	Latest() (Reading, bool)
	Raw() []Reading
	Hourly() []HourlyMeasurement
}

// Observer is notified by the pipeline after a reading is accepted and
// after an hour has been rolled up. Implementations must not block.
type Observer interface {
	OnReading(r Reading)
	OnHourly(m HourlyMeasurement)
}
