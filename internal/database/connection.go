package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"cash-reconciliation-service/internal/config"
)

// MySQL server error for an unknown schema
const errUnknownDatabase = 1049

func NewConnection(cfg *config.Config, log *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		var myErr *mysql.MySQLError
		if !errors.As(err, &myErr) || myErr.Number != errUnknownDatabase {
			db.Close()
			return nil, fmt.Errorf("error pinging database: %w", err)
		}

		log.WithField("database", cfg.Database.Name).Warn("Database does not exist, attempting to create it")
		db.Close()

		if err := createDatabase(cfg); err != nil {
			return nil, err
		}
		log.WithField("database", cfg.Database.Name).Info("Successfully created database")

		db, err = sql.Open("mysql", cfg.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("error connecting to new database: %w", err)
		}
		if err = db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("error verifying connection to new database: %w", err)
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info("Successfully connected to MySQL database")
	return db, nil
}

func createDatabase(cfg *config.Config) error {
	rootDB, err := sql.Open("mysql", getRootDSN(cfg))
	if err != nil {
		return fmt.Errorf("error connecting to MySQL root: %w", err)
	}
	defer rootDB.Close()

	_, err = rootDB.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", cfg.Database.Name))
	if err != nil {
		return fmt.Errorf("error creating database: %w", err)
	}
	return nil
}

func getRootDSN(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Database.User
	mc.Passwd = cfg.Database.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	mc.ParseTime = true
	return mc.FormatDSN()
}

type Transaction struct {
	*sql.Tx
}

func BeginTx(ctx context.Context, db *sql.DB) (*Transaction, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Transaction{tx}, nil
}

func (tx *Transaction) Commit() error {
	return tx.Tx.Commit()
}

// Rollback is safe to defer after Commit.
func (tx *Transaction) Rollback() error {
	err := tx.Tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
