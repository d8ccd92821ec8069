// Package log содержит настройку логирования приложения (logrus, запись в файл)
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hazadus/quantum-radio/internal/filesystem"
)

// Options описывает параметры логирования
type Options struct {
	Write bool   // Писать ли логи вообще
	Level string // Уровень логирования (debug, info, warn, error)
	JSON  bool   // Формат JSON вместо текстового
	Dir   string // Директория для файлов логов
}

// enabled - включено ли логирование в текущем процессе
var enabled bool

// Setup настраивает логирование. Если запись выключена, все вызовы логгера
// ничего не делают: TUI не должен получать строки логов на экран.
func Setup(opts Options) error {
	enabled = opts.Write
	if !enabled {
		return nil
	}

	if opts.Dir == "" {
		return fmt.Errorf("не задана директория для логов")
	}

	fs := filesystem.API()
	if err := fs.MkdirAll(opts.Dir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	path := filepath.Join(opts.Dir, time.Now().Format("2006-01-02")+".log")
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла логов: %w", err)
	}
	logrus.SetOutput(f)

	if opts.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	return nil
}

// Enabled сообщает, включено ли логирование
func Enabled() bool {
	return enabled
}

func Error(args ...interface{}) {
	if enabled {
		logrus.Error(args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}

func Warn(args ...interface{}) {
	if enabled {
		logrus.Warn(args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}

func Info(args ...interface{}) {
	if enabled {
		logrus.Info(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if enabled {
		logrus.Infof(format, args...)
	}
}

func Debug(args ...interface{}) {
	if enabled {
		logrus.Debug(args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
