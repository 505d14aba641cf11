package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"creditdash/internal/config"
)

type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

// Open connects to the warehouse. The session timezone is sent as a startup
// parameter so every pooled connection agrees on what CURRENT_DATE means.
func Open(cfg config.DBConfig) (*DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("db dsn is empty")
	}
	pgcfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if pgcfg.RuntimeParams == nil {
			pgcfg.RuntimeParams = map[string]string{}
		}
		pgcfg.RuntimeParams["timezone"] = tz
	}
	sqldb := stdlib.OpenDB(*pgcfg)

	gcfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqldb}), gcfg)
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{Gorm: gdb, SQL: sqldb}, nil
}

func Close(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

func Ping(ctx context.Context, db *DB) error {
	if db == nil || db.SQL == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return db.SQL.PingContext(ctx)
}
