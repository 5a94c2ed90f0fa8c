package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal/audit"
	auditPostgres "github.com/frahmantamala/contacthub/internal/audit/postgres"
	contactPostgres "github.com/frahmantamala/contacthub/internal/contact/postgres"
	"github.com/frahmantamala/contacthub/internal/core/events"
	"github.com/frahmantamala/contacthub/internal/customfield"
	customfieldPostgres "github.com/frahmantamala/contacthub/internal/customfield/postgres"
	"github.com/frahmantamala/contacthub/internal/division"
	divisionPostgres "github.com/frahmantamala/contacthub/internal/division/postgres"
	"github.com/frahmantamala/contacthub/internal/importer"
	"github.com/frahmantamala/contacthub/internal/storage"
	uploadPostgres "github.com/frahmantamala/contacthub/internal/upload/postgres"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Operate on spreadsheet imports outside the server",
}

var importRunCmd = &cobra.Command{
	Use:   "run [upload-id]",
	Short: "Run a processing import in the foreground",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uploadID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || uploadID <= 0 {
			return fmt.Errorf("invalid upload id %q", args[0])
		}
		return withRunner(func(runner *importer.Runner) error {
			return runner.Run(cmd.Context(), uploadID)
		})
	},
}

var importRecoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Fail imports left processing by a stopped server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(func(runner *importer.Runner) error {
			n, err := runner.RecoverInterrupted(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Marked %d interrupted import(s) as failed\n", n)
			return nil
		})
	},
}

func withRunner(fn func(*importer.Runner) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	db, sqlxDB, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer sqlxDB.Close()

	files, err := storage.NewLocal(cfg.Storage.UploadDir)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(lg)
	auditService := audit.NewService(auditPostgres.NewAuditRepository(db), lg)
	bus.Subscribe(events.EventTypeImportCompleted, auditService.HandleImportEvent)
	bus.Subscribe(events.EventTypeImportFailed, auditService.HandleImportEvent)

	runner := importer.NewRunner(
		uploadPostgres.NewUploadRepository(db),
		contactPostgres.NewContactRepository(db),
		files,
		fieldSource(db, auditService),
		bus.Sync(),
		importer.NewMetrics(nil),
		lg,
	)
	return fn(runner)
}

func fieldSource(db *gorm.DB, auditor audit.Recorder) *customfield.Service {
	lg := logger.LoggerWrapper()
	divisions := division.NewService(divisionPostgres.NewDivisionRepository(db), auditor, lg)
	return customfield.NewService(customfieldPostgres.NewCustomFieldRepository(db), divisions, auditor, lg)
}

func init() {
	importCmd.AddCommand(importRunCmd)
	importCmd.AddCommand(importRecoverCmd)
}
