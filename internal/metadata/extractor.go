// Package metadata извлекает теги и параметры скачанных аудиофайлов
package metadata

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/mp3"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/filesystem"
)

// Tags хранит теги трека
type Tags struct {
	Artist string
	Title  string
	Album  string
}

// FileInfo содержит информацию о файле
type FileInfo struct {
	Size     int64
	Duration time.Duration
}

// Read читает теги из reader. ok равен false, если теги не найдены
func Read(r io.ReadSeeker) (tags Tags, ok bool) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Tags{}, false
	}

	m, err := tag.ReadFrom(r)
	if err != nil {
		return Tags{}, false
	}

	tags = Tags{
		Artist: strings.TrimSpace(m.Artist()),
		Title:  strings.TrimSpace(m.Title()),
		Album:  strings.TrimSpace(m.Album()),
	}
	return tags, tags.Artist != "" || tags.Title != ""
}

// ReadFile читает теги из файла
func ReadFile(path string) (Tags, bool) {
	file, err := filesystem.API().Open(path)
	if err != nil {
		return Tags{}, false
	}
	defer file.Close()

	return Read(file)
}

// Resolve возвращает теги файла, дополненные полями трека из каталога
func Resolve(path string, track api.Track) Tags {
	tags, _ := ReadFile(path)
	return tags.WithFallback(track)
}

// WithFallback заполняет пустые теги полями трека
func (t Tags) WithFallback(track api.Track) Tags {
	if t.Title == "" {
		t.Title = strings.TrimSpace(track.Title)
	}
	if t.Artist == "" {
		t.Artist = strings.TrimSpace(track.ChannelTitle)
	}
	if t.Title == "" {
		t.Title = track.VideoID
	}
	if t.Artist == "" {
		t.Artist = "Unknown Artist"
	}
	return t
}

// Duration возвращает длительность MP3 файла
func Duration(path string) (time.Duration, error) {
	file, err := filesystem.API().Open(path)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	streamer, format, err := mp3.Decode(file)
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования MP3: %w", err)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

// Stat возвращает размер и длительность файла. Длительность равна нулю,
// если файл не декодируется как MP3.
func Stat(path string) (*FileInfo, error) {
	info, err := filesystem.API().Stat(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	duration, _ := Duration(path)
	return &FileInfo{
		Size:     info.Size(),
		Duration: duration,
	}, nil
}
