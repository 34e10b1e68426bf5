package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	DSN          string `split_words:"true" default:"study_agent.db"`
	MaxOpenConns int    `split_words:"true" default:"1"`
	// LogQueries enables gorm's SQL logger.
	LogQueries bool `split_words:"true" default:"false"`
}

func (c *Config) New() (*gorm.DB, error) {
	level := gormlogger.Silent
	if c.LogQueries {
		level = gormlogger.Info
	}

	db, err := gorm.Open(sqlite.Open(c.DSN), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", c.DSN, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}
