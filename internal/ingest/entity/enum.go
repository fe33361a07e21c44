package entity

// UploadStatus is the lifecycle state of an upload.
//
// Transitions are monotonic: pending -> processing -> {completed | failed}.
// failed may also be entered directly from pending, because fetch and parse
// failures happen before row persistence begins.
type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusCompleted || s == UploadStatusFailed
}

// CanTransitionTo reports whether moving from s to next is a legal step.
func (s UploadStatus) CanTransitionTo(next UploadStatus) bool {
	switch s {
	case UploadStatusPending:
		return next == UploadStatusProcessing || next == UploadStatusFailed
	case UploadStatusProcessing:
		return next == UploadStatusCompleted || next == UploadStatusFailed
	default:
		return false
	}
}
