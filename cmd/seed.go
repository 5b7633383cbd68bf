package cmd

import (
	"fmt"
	"log"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/config"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/db"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/util"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo users and categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo users...")

		if err := seedUsers(sqlDB); err != nil {
			return err
		}
		if err := seedCategories(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

type demoUser struct {
	email     string
	password  string
	firstName string
	lastName  string
}

var demoUsers = []demoUser{
	{"asha@example.com", "asha-password-1", "Asha", "Mushi"},
	{"juma@example.com", "juma-password-1", "Juma", "Kileo"},
	{"neema@example.com", "neema-password-1", "Neema", "Swai"},
}

var demoCategories = []string{"Food", "Transport", "Rent", "Utilities"}

// seedUsers upserts demo users keyed on the email unique index (idempotent).
func seedUsers(dbx *sqlx.DB) error {
	const q = `
INSERT INTO users
    (id, email, password_hash, first_name, last_name, status, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, 'active', NOW(), NOW())
ON DUPLICATE KEY UPDATE
    first_name = VALUES(first_name),
    last_name  = VALUES(last_name),
    updated_at = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, u := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %q: %w", u.email, err)
		}
		if _, err := tx.Exec(q, util.New(), u.email, string(hash), u.firstName, u.lastName); err != nil {
			return fmt.Errorf("insert user %q: %w", u.email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit users: %w", err)
	}
	return nil
}

// seedCategories gives every demo user the default category set, relying on
// uq_categories_user_name for idempotency.
func seedCategories(dbx *sqlx.DB) error {
	const q = `
INSERT INTO categories (id, user_id, name, created_at, updated_at)
SELECT ?, u.id, ?, NOW(), NOW()
FROM users u
WHERE u.email = ?
ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at)
`
	for _, u := range demoUsers {
		for _, name := range demoCategories {
			if _, err := dbx.Exec(q, util.New(), name, u.email); err != nil {
				return fmt.Errorf("seed category %q for %q: %w", name, u.email, err)
			}
		}
	}
	return nil
}
