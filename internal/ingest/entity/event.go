package entity

// UploadEvent announces an upload reaching a terminal state.
type UploadEvent struct {
	EventID  string
	UploadID string
	Status   UploadStatus
	RowCount int
	Err      string
}
