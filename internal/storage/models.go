package storage

import "time"

// CustomerRecord is a login identity. PasswordHash is a bcrypt hash.
type CustomerRecord struct {
	ID           string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IngestRun summarises one completed ingestion.
type IngestRun struct {
	ID             int64
	IndexVersion   string
	Backend        string
	FilesScanned   int
	BlocksSeen     int
	BlocksDropped  int
	RecordsIndexed int
	FinishedAt     time.Time
}
