package database

import (
	"chatapp-client/internal/models"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const DefaultSqlitePath = "./database.db"

func setPragmaValues(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return err
	}

	if _, err := db.Exec("PRAGMA synchronous = normal"); err != nil {
		return err
	}

	return nil
}

func readPragmaValues(sugar *zap.SugaredLogger, db *sql.DB) error {
	var journalModeValue string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalModeValue)
	if err != nil {
		return err
	}

	var synchronousValue int
	err = db.QueryRow("PRAGMA synchronous").Scan(&synchronousValue)
	if err != nil {
		return err
	}

	var synchronousValueStr string
	switch synchronousValue {
	case 0:
		synchronousValueStr = "off"
	case 1:
		synchronousValueStr = "normal"
	case 2:
		synchronousValueStr = "full"
	case 3:
		synchronousValueStr = "extra"
	default:
		return fmt.Errorf("synchronous value is unsupported")
	}

	sugar.Debugf("sqlite PRAGMA journal_mode: %s, synchronous: %s", journalModeValue, synchronousValueStr)
	return nil
}

// Setup opens the preference database, sqlite when self contained and mysql/mariadb
// otherwise, and creates its tables.
func Setup(sugar *zap.SugaredLogger, cfg *models.ConfigFile) (*sql.DB, error) {
	if cfg.SelfContained {
		path := cfg.SqlitePath
		if path == "" {
			path = DefaultSqlitePath
		}
		return OpenSqlite(sugar, path)
	}

	sugar.Info("Connecting to database mysql/mariadb...")

	db, err := sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&timeout=10s", cfg.DbUser, cfg.DbPassword, cfg.DbAddress, cfg.DbPort, cfg.DbDatabase))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)

	err = setupTables(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func OpenSqlite(sugar *zap.SugaredLogger, path string) (*sql.DB, error) {
	sugar.Infof("Connecting to database sqlite [%s]...", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// there can be sqlite busy errors if this is not set to 1
	db.SetMaxOpenConns(1)

	err = setPragmaValues(db)
	if err == nil {
		err = readPragmaValues(sugar, db)
	}
	if err == nil {
		err = setupTables(db)
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func setupTables(db *sql.DB) error {
	_, err := db.Exec(`
			CREATE TABLE IF NOT EXISTS preferences (
				user_id VARCHAR(64) PRIMARY KEY,
				data TEXT NOT NULL,
				updated_at BIGINT NOT NULL
			);
	`)
	return err
}
