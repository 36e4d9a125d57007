package types

// Status is the lifecycle state of a round. It is a closed set; values read
// from storage go through NormalizeStatus before anything else looks at them.
type Status string

const (
	StatusNotStarted Status = "notStarted"
	StatusDraft      Status = "draft"
	StatusPlanned    Status = "planned"
	StatusDone       Status = "done"
)

// Retired status names still present in older documents. The migration is
// one-way: reads map them forward, writes only ever emit current names.
const (
	legacyStatusSuggested = "suggested"
	legacyStatusCompleted = "completed"
)

// NormalizeStatus maps a raw stored status string onto the current status set.
// Unknown or empty values collapse to StatusNotStarted.
func NormalizeStatus(raw string) Status {
	switch raw {
	case string(StatusNotStarted), string(StatusDraft), string(StatusPlanned), string(StatusDone):
		return Status(raw)
	case legacyStatusSuggested:
		return StatusDraft
	case legacyStatusCompleted:
		return StatusDone
	default:
		return StatusNotStarted
	}
}

// Valid reports whether s is one of the current status values.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusDraft, StatusPlanned, StatusDone:
		return true
	}
	return false
}
