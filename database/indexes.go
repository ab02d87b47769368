package database

import (
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

// Partial unique indexes backing the engine's check-then-act paths: one
// pending notification per (table, type) and one open session per table.
// The application performs the same checks first; the indexes close the
// race window between two concurrent requests.
var indexStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_pending_notification
		ON notifications (table_id, type) WHERE status = 'pending'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_session
		ON table_sessions (table_id) WHERE status = 'open'`,
}

// EnsureIndexes applies the raw-SQL constraints after AutoMigrate. MySQL has
// no partial indexes, so failures are logged and the application-level
// guards carry the invariant alone there.
func EnsureIndexes(db *gorm.DB) {
	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			utils.ErrorLogger.Printf("Error creating index: %v\nStatement: %s", err, stmt)
			continue
		}
	}
	utils.InfoLogger.Println("Storage indexes ensured.")
}
