package transcription

// ListReceivedRequest represents query parameters for listing stored records.
// Limit is clamped by the service.
type ListReceivedRequest struct {
	Limit int `query:"limit"`
}

// RecordRequest selects one record by id
type RecordRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

// MeetingRequest selects the records of one meeting
type MeetingRequest struct {
	MeetingID string `param:"meeting_id" validate:"required,max=255"`
}

// ListCreationsRequest represents query parameters for the creation audit log
type ListCreationsRequest struct {
	MeetingID string `query:"meeting_id" validate:"omitempty,max=255"`
	Limit     int    `query:"limit"`
}
