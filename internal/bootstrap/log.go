package bootstrap

import (
	"io"
	"os"
	"path/filepath"

	"github.com/melitools/melisync/internal/conf"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func InitLog() {
	level, err := logrus.ParseLevel(conf.Conf.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	utils.Log.SetLevel(level)

	if conf.Conf.LogFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(conf.Conf.LogFile), 0o755); err != nil {
		utils.Log.Warnf("failed to create log directory: %v", err)
		return
	}
	rotated := &lumberjack.Logger{
		Filename:   conf.Conf.LogFile,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
	utils.Log.SetOutput(io.MultiWriter(os.Stderr, rotated))
}
