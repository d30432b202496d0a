package store

// Attachment records an uploaded file. The ID doubles as the attachment
// reference carried by chat messages; bytes live on disk under Path.
type Attachment struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
	Path        string
	CreatedTs   int64
}
