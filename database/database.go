// Package database keeps a local history of backup and restore runs. The
// catalog is optional everywhere: a nil *Database skips recording.
package database

import (
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Database struct {
	Lock   sync.Mutex
	Cli    *gorm.DB
	Logger zerolog.Logger
}
