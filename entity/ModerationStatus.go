package entity

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationRejected:
		return true
	}
	return false
}

// Decided is true for approved and rejected. Nothing moves a decided
// restaurant back to pending.
func (s ModerationStatus) Decided() bool {
	return s == ModerationApproved || s == ModerationRejected
}
