package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger = logrus.New()

// Init configures the package-level logger. Output goes to stdout and, when a
// log directory is configured, to a size-rotated file as well.
func Init(logDir string) {
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	Logger.SetLevel(logrus.InfoLevel)

	if logDir == "" {
		Logger.SetOutput(os.Stdout)
		return
	}

	if err := os.MkdirAll(logDir, 0o700); err != nil {
		Logger.SetOutput(os.Stdout)
		Logger.Warnf("Failed to create log directory %s: %v", logDir, err)
		return
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "server.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	Logger.SetOutput(io.MultiWriter(os.Stdout, logFile))
}
