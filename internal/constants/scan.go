package constants

import "slices"

// ScanStatus represents the lifecycle state of an assessment scan.
// A scan is created as PENDING, moved to RUNNING by the orchestrator before any
// scanning work starts, and finishes in exactly one of COMPLETED or FAILED.
type ScanStatus string

const (
	// ScanPending indicates the scan has been created but not yet picked up
	ScanPending ScanStatus = "pending"
	// ScanRunning indicates the orchestrator is actively working on the scan
	ScanRunning ScanStatus = "running"
	// ScanCompleted indicates the scan finished and recommendations are persisted
	ScanCompleted ScanStatus = "completed"
	// ScanFailed indicates a phase failure aborted the scan
	ScanFailed ScanStatus = "failed"
)

// TerminalScanStatuses returns the statuses after which a scan record is never
// mutated again.
func TerminalScanStatuses() []ScanStatus {
	return []ScanStatus{ScanCompleted, ScanFailed}
}

// validScanTransitions defines the allowed state transitions. RUNNING is
// re-entrant only in the sense that progress updates persist repeatedly while
// the status stays RUNNING. PENDING -> FAILED exists so a scan whose task was
// never queued can be closed out instead of sitting in PENDING forever.
var validScanTransitions = map[ScanStatus][]ScanStatus{
	ScanPending:   {ScanRunning, ScanFailed},
	ScanRunning:   {ScanCompleted, ScanFailed},
	ScanCompleted: {},
	ScanFailed:    {},
}

// CanTransitionScan reports whether a scan may move from 'from' to 'to'.
func CanTransitionScan(from, to ScanStatus) bool {
	allowed, ok := validScanTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// ScanTransitionSources returns the statuses from which a scan may move to
// 'to'. The storage layer uses this to guard status writes with a condition
// on the stored status.
func ScanTransitionSources(to ScanStatus) []ScanStatus {
	sources := []ScanStatus{}
	for _, from := range []ScanStatus{ScanPending, ScanRunning, ScanCompleted, ScanFailed} {
		if CanTransitionScan(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

// Progress checkpoints for the scan state machine. Region scanning fills the
// range up to ScanPhaseCeiling; the remaining headroom is reserved for the
// assessment phase.
const (
	ScanPhaseCeiling       = 80
	AssessmentPhaseStarted = 85
	ScanProgressDone       = 100
)

// RegionScanProgress computes the persisted progress value after 'completed'
// of 'total' regions have been scanned: floor(completed/total*80).
func RegionScanProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return completed * ScanPhaseCeiling / total
}
