package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/meddist/internal-api/internal/config"
	"github.com/meddist/internal-api/internal/repository/dao"
)

func OpenPostgres(conf *config.PostgresConfig, env string) (*gorm.DB, error) {
	db, err := open(postgres.Open(conf.DSN()), env)
	if err != nil {
		return nil, err
	}

	if conf.AutoMigrate {
		if err = dao.InitTables(db); err != nil {
			return nil, fmt.Errorf("dao.InitTables -> %w", err)
		}
	}

	return db, nil
}

// OpenPostgresWithURL is used when DATABASE_URL is set. Tables are always migrated.
func OpenPostgresWithURL(url, env string) (*gorm.DB, error) {
	db, err := open(postgres.Open(url), env)
	if err != nil {
		return nil, err
	}

	if err = dao.InitTables(db); err != nil {
		return nil, fmt.Errorf("dao.InitTables -> %w", err)
	}

	return db, nil
}

func open(dialector gorm.Dialector, env string) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(env),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB -> %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("sqlDB.Ping -> %w", err)
	}

	zap.L().Info("connected to postgres")

	return db, nil
}

func newGormLogger(env string) gormlogger.Interface {
	lvl := gormlogger.Warn
	if env != "production" {
		lvl = gormlogger.Info
	}

	return gormlogger.Default.LogMode(lvl)
}
