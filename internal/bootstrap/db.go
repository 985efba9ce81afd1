package bootstrap

import (
	"os"
	"path/filepath"

	"github.com/melitools/melisync/internal/conf"
	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/pkg/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB() {
	if err := os.MkdirAll(filepath.Dir(conf.Conf.DBFile), 0o755); err != nil {
		utils.Log.Fatalf("failed to create data directory: %v", err)
	}
	gdb, err := gorm.Open(sqlite.Open(conf.Conf.DBFile), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		utils.Log.Fatalf("failed to open database %s: %v", conf.Conf.DBFile, err)
	}
	if err := db.Init(gdb); err != nil {
		utils.Log.Fatalf("failed to migrate database: %v", err)
	}
}
