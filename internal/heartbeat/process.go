package heartbeat

import (
	"time"

	"github.com/vyrodovalexey/avheartbeat/internal/diagnostics"
)

// processStart is captured once at process initialization.
var processStart = time.Now()

// SampleProcessInfo captures the hosting process state at call time:
// the process start time and the elapsed uptime in milliseconds.
func SampleProcessInfo() *diagnostics.ProcessInformation {
	return &diagnostics.ProcessInformation{
		StartTime:          processStart.UTC(),
		UptimeMilliseconds: time.Since(processStart).Milliseconds(),
	}
}
