package database

import (
	"os"

	"todo-service/config"

	"github.com/jmoiron/sqlx"
	"github.com/umakantv/go-utils/db"
	"github.com/umakantv/go-utils/db/migrations"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

func InitializeDatabase(cfg config.DatabaseConfig) *sqlx.DB {
	var dbConn *sqlx.DB

	switch cfg.Driver {
	case "postgres":
		conn, err := sqlx.Connect("postgres", cfg.DSN)
		if err != nil {
			logger.Error("Failed to connect to postgres", zap.Error(err))
			os.Exit(1)
		}
		dbConn = conn
	default:
		dbConn = db.GetDBConnection(db.DatabaseConfig{
			DRIVER: "sqlite3",
			DB:     cfg.DSN,
		})
		// sqlite allows a single writer; serialise through one connection.
		dbConn.SetMaxOpenConns(1)
	}

	if err := ApplySchema(dbConn); err != nil {
		logger.Error("Error while applying schema", zap.Error(err))
		os.Exit(1)
	}

	err := migrations.Migrate(dbConn, cfg.MigrationsDir)
	if err != nil {
		logger.Error("Error while running migration", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Database initialized successfully", zap.String("driver", dbConn.DriverName()))
	return dbConn
}
