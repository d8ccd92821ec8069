package log

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazadus/quantum-radio/internal/filesystem"
)

func TestSetupDisabled(t *testing.T) {
	if err := Setup(Options{Write: false}); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if Enabled() {
		t.Error("Логирование должно быть выключено")
	}
	// Вызовы без включенного логирования не должны паниковать
	Infof("ignored %d", 1)
	Errorf("ignored %s", "x")
}

func TestSetupRequiresDir(t *testing.T) {
	defer func() { enabled = false }()

	if err := Setup(Options{Write: true}); err == nil {
		t.Error("Ожидалась ошибка при пустой директории")
	}
}

func TestSetupWritesToDatedFile(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()
	defer func() { enabled = false }()

	dir := "/logs"
	if err := Setup(Options{Write: true, Level: "debug", Dir: dir}); err != nil {
		t.Fatalf("Ошибка настройки логирования: %v", err)
	}

	Warnf("invalid video id %q", "bad id!")

	path := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		t.Fatalf("Ошибка чтения файла логов: %v", err)
	}
	if !strings.Contains(string(data), "bad id!") {
		t.Errorf("Файл логов не содержит сообщение: %s", data)
	}
}
