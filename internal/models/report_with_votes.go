package models

// ReportWithVotes is the denormalized dashboard row. It is rebuilt on every
// fetch and never written back.
type ReportWithVotes struct {
	Report
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	// ReporterName is only resolved when profiles were fetched.
	ReporterName    string   `json:"reporter_name,omitempty"`
	PhotoThumbnails []string `json:"photo_thumbnails,omitempty"`
}

