package utils

import (
	"sync/atomic"

	"gorm.io/gorm"
)

var sharedDB atomic.Pointer[gorm.DB]

// InitDB publishes the process-wide database handle. Called once from main
// after the connection is established; later calls are ignored.
func InitDB(database *gorm.DB) {
	sharedDB.CompareAndSwap(nil, database)
}

// GetDB returns the shared handle, nil before InitDB. Request handlers
// receive their own *gorm.DB; this accessor exists for health checks and tooling
// that run outside the request path.
func GetDB() *gorm.DB {
	return sharedDB.Load()
}
