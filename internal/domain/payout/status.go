package payout

// Status is the lifecycle state shared by receipts and payout instructions
type Status string

const (
	StatusPending     Status = "pending"
	StatusScheduled   Status = "scheduled"
	StatusProcessing  Status = "processing"
	StatusDistributed Status = "distributed"
	StatusPaid        Status = "paid"
	StatusFailed      Status = "failed"
)

// AllStatuses lists every known status in lifecycle order
var AllStatuses = []Status{
	StatusPending, StatusScheduled, StatusProcessing, StatusDistributed, StatusPaid, StatusFailed,
}

// PayableStatuses are the states from which an instruction may be marked paid
var PayableStatuses = []Status{StatusPending, StatusScheduled, StatusProcessing}

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusProcessing, StatusDistributed, StatusPaid, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanDistribute returns true if a receipt in this state may be distributed
func (s Status) CanDistribute() bool {
	return s == StatusPending
}

// CanMarkPaid returns true if an instruction in this state may be marked paid
func (s Status) CanMarkPaid() bool {
	return s == StatusPending || s == StatusScheduled || s == StatusProcessing
}

// StatusStrings converts statuses for use in SQL IN clauses
func StatusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
