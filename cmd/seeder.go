package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/auth"
	"github.com/frahmantamala/contacthub/internal/branding"
	brandingDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/branding"
	divisionDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/division"
	userDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/user"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

var (
	seedAdminEmail string
	seedDivisions  []string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the first admin, divisions and global branding",
	Long:  `Create the bootstrap admin account, a set of divisions and the global branding row. Existing rows are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		db, sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer sqlxDB.Close()

		return seed(cmd.Context(), db, cfg.Security.BCryptCost)
	},
}

func seed(ctx context.Context, db *gorm.DB, bcryptCost int) error {
	lg := logger.LoggerWrapper()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		email := strings.ToLower(strings.TrimSpace(seedAdminEmail))
		var admin userDatamodel.User
		err := tx.Where("email = ?", email).First(&admin).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			password, err := auth.GenerateTemporaryPassword()
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password, bcryptCost)
			if err != nil {
				return err
			}
			admin = userDatamodel.User{
				Email:        email,
				FirstName:    "System",
				LastName:     "Administrator",
				PasswordHash: hash,
				Role:         string(internal.RoleAdmin),
				IsActive:     true,
			}
			if err := tx.Create(&admin).Error; err != nil {
				return fmt.Errorf("failed to insert admin user: %w", err)
			}
			fmt.Printf("Seeded admin user %s with temporary password: %s\n", email, password)
		case err != nil:
			return fmt.Errorf("failed to look up admin user: %w", err)
		default:
			lg.Info("admin user already exists", "email", email)
		}

		for _, name := range seedDivisions {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			d := divisionDatamodel.Division{Name: name, IsActive: true}
			if err := tx.Where("name = ?", name).FirstOrCreate(&d).Error; err != nil {
				return fmt.Errorf("failed to seed division %s: %w", name, err)
			}
			lg.Info("division ready", "division_id", d.ID, "name", name)
		}

		row := brandingDatamodel.BrandingSettings{
			OrganizationName: branding.DefaultOrganizationName,
			PrimaryColor:     branding.DefaultPrimaryColor,
			SecondaryColor:   branding.DefaultSecondaryColor,
			AccentColor:      branding.DefaultAccentColor,
			FontFamily:       branding.DefaultFontFamily,
		}
		var count int64
		if err := tx.Model(&brandingDatamodel.BrandingSettings{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check branding: %w", err)
		}
		if count == 0 {
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to seed branding: %w", err)
			}
			lg.Info("seeded global branding")
		}
		return nil
	})
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@contacthub.local", "email of the bootstrap admin")
	seedCmd.Flags().StringSliceVar(&seedDivisions, "division", []string{"Sales", "Marketing", "Support"}, "division names to create")
}
