package dto

// TranscriptFile is a rendered student transcript ready for download.
type TranscriptFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
