package service

import (
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gs-shaykot/nex-server/internal/history"
	"github.com/gs-shaykot/nex-server/pkg/variables"
)

type database_Params struct {
	fx.In

	Logger *slog.Logger
}

func database(params database_Params) (*gorm.DB, error) {
	path := variables.Env(variables.DATABASE_PATH_NAME, variables.DATABASE_PATH_DEFAULT)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&history.ChatMessage{}); err != nil {
		return nil, err
	}

	params.Logger.Info("database ready", slog.String("path", path))
	return db, nil
}

var DatabaseModule = fx.Module("database", fx.Provide(database))
