// Package filesystem содержит общий бэкенд файловой системы приложения
package filesystem

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API возвращает текущий бэкенд файловой системы
func API() afero.Afero {
	return backend
}

// SetOsFs переключает бэкенд на файловую систему ОС
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs переключает бэкенд на файловую систему в памяти (для тестов)
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

// GacheFs адаптирует текущий бэкенд к интерфейсу gache.FileSystem
type GacheFs struct{}

// OpenFile открывает файл через текущий бэкенд
func (GacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

// MkdirAll создает директорию через текущий бэкенд
func (GacheFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}
