package services

import (
	"time"

	"github.com/fairwaylink/messaging/pkg/internal/database"
	"github.com/rs/zerolog/log"
)

// DoAutoDatabaseCleanup purges rows whose soft-deletion is older than an hour.
func DoAutoDatabaseCleanup() {
	cutoff := time.Now().Add(-60 * time.Minute)
	log.Debug().Time("cutoff", cutoff).Msg("Now cleaning up entire database...")

	var count int64
	for _, model := range database.AutoMaintainRange {
		tx := database.C.Unscoped().Delete(model, "deleted_at IS NOT NULL AND deleted_at <= ?", cutoff)
		if tx.Error != nil {
			log.Error().Err(tx.Error).Msg("An error occurred when running database cleanup...")
		}
		count += tx.RowsAffected
	}

	log.Debug().Int64("affected", count).Msg("Clean up entire database accomplished.")
}
