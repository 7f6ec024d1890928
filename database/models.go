package database

import "time"

const (
	RunKindBackup  = "backup"
	RunKindRestore = "restore"

	RunStatusDone   = "done"
	RunStatusFailed = "failed"
)

// Run is one backup or restore invocation. Digest is the xxhash of the
// archive file, stored as int64 the way sqlite wants it.
type Run struct {
	ID        uint `gorm:"primaryKey"`
	Kind      string
	Archive   string
	SizeBytes int64
	Digest    int64
	StartedAt time.Time
	Seconds   float64
	Status    string
	Error     string
	CreatedAt time.Time
}
