package ports

// Metrics records domain-level measurements
type Metrics interface {
	// RecordsIngested counts records written to a table of the given role
	RecordsIngested(role string, n int)

	// GraphValidation records the outcome of one integrity check
	GraphValidation(passed bool, violations int)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) RecordsIngested(string, int) {}
func (NopMetrics) GraphValidation(bool, int)   {}
