package transaction

// Status is the advisory lifecycle state of a broadcast transaction as seen
// through receipt queries.
type Status byte

// Possible transaction statuses.
const (
	// Pending means no receipt exists yet.
	Pending Status = iota
	// Confirmed means a receipt exists and reports success.
	Confirmed
	// Failed means a receipt exists and reports a reverted execution.
	Failed
	// Unknown means the status could not be determined.
	Unknown
)

// String implements the stringer interface.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
