package diagnostics

import "time"

// ProbeResult is the outcome of a single probe execution.
type ProbeResult struct {
	// Name is the probe's reporting name.
	Name string `json:"name" yaml:"name"`

	// Success is true when the probe returned no error and did not panic.
	Success bool `json:"success" yaml:"success"`

	// ElapsedMilliseconds is the wall-clock duration of the probe run.
	ElapsedMilliseconds int64 `json:"elapsedMilliseconds" yaml:"elapsedMilliseconds"`

	// ErrorMessage carries the failure detail, nil on success.
	ErrorMessage *string `json:"errorMessage" yaml:"errorMessage,omitempty"`
}

// Results aggregates the outcomes of one diagnostics run.
type Results struct {
	// Results holds one entry per executed probe. It is never nil.
	Results []ProbeResult `json:"results" yaml:"results"`

	// Success is true when every probe succeeded. An empty run is
	// successful.
	Success bool `json:"success" yaml:"success"`

	// ProcessInformation is attached by the serving layer at response
	// time; the engine itself leaves it nil.
	ProcessInformation *ProcessInformation `json:"processInformation,omitempty" yaml:"processInformation,omitempty"`
}

// ProcessInformation describes the hosting process at the moment a
// response is produced.
type ProcessInformation struct {
	// StartTime is when the process started, RFC 3339 in JSON.
	StartTime time.Time `json:"startTime" yaml:"startTime"`

	// UptimeMilliseconds is the elapsed time since StartTime.
	UptimeMilliseconds int64 `json:"uptimeMilliseconds" yaml:"uptimeMilliseconds"`
}

// newSuccessResult builds a passing result for a probe.
func newSuccessResult(name string, elapsed time.Duration) ProbeResult {
	return ProbeResult{
		Name:                name,
		Success:             true,
		ElapsedMilliseconds: elapsedMillis(elapsed),
	}
}

// newFailureResult builds a failing result carrying the error message.
func newFailureResult(name string, elapsed time.Duration, message string) ProbeResult {
	return ProbeResult{
		Name:                name,
		Success:             false,
		ElapsedMilliseconds: elapsedMillis(elapsed),
		ErrorMessage:        &message,
	}
}

// NewResults wraps probe results, deriving the aggregate success flag.
// The returned Results always carries a non-nil slice so it serializes
// as an empty array rather than null.
func NewResults(results []ProbeResult) *Results {
	if results == nil {
		results = []ProbeResult{}
	}
	return &Results{Results: results, Success: deriveSuccess(results)}
}

// AppendResult adds a probe result and recomputes the aggregate
// success flag from the full entry set.
func (r *Results) AppendResult(result ProbeResult) {
	r.Results = append(r.Results, result)
	r.Success = deriveSuccess(r.Results)
}

// deriveSuccess reports whether every entry succeeded. An empty set is
// successful.
func deriveSuccess(results []ProbeResult) bool {
	for i := range results {
		if !results[i].Success {
			return false
		}
	}
	return true
}

// elapsedMillis converts a duration to whole milliseconds, clamped at
// zero so clock adjustments can never produce a negative reading.
func elapsedMillis(d time.Duration) int64 {
	ms := d.Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
