package cmd

import (
	"log"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/viaviktor/rfisys/internal/core/softdelete"
	"github.com/viaviktor/rfisys/pkg/logger"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Backfill deleted_at for rows deactivated without a deletion timestamp",
	Long: `Find rows where active = false but deleted_at was never stamped and
backfill deleted_at from updated_at. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		repaired, err := softdelete.RepairAll(db)
		if err != nil {
			log.Fatalf("repair failed: %v", err)
		}

		logger.L().Info("soft-delete repair complete", "rows_backfilled", repaired)
	},
}
