package metadata

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/filesystem"
)

// id3 собирает минимальный тег ID3v2.3 с фреймами TIT2 и TPE1
func id3(title, artist string) []byte {
	frame := func(id, text string) []byte {
		body := append([]byte{0x00}, text...)
		size := len(body)
		out := []byte(id)
		out = append(out, byte(size>>24), byte(size>>16), byte(size>>8), byte(size))
		out = append(out, 0x00, 0x00)
		return append(out, body...)
	}

	var frames []byte
	frames = append(frames, frame("TIT2", title)...)
	frames = append(frames, frame("TPE1", artist)...)

	size := len(frames)
	header := []byte{'I', 'D', '3', 0x03, 0x00, 0x00,
		byte(size>>21) & 0x7f, byte(size>>14) & 0x7f, byte(size>>7) & 0x7f, byte(size) & 0x7f}
	return append(header, frames...)
}

func useMemFs(t *testing.T) {
	t.Helper()
	filesystem.SetMemMapFs()
	t.Cleanup(filesystem.SetOsFs)
}

func TestRead(t *testing.T) {
	tags, ok := Read(bytes.NewReader(id3("Quantum Dreams", "Synth Lab")))
	if !ok {
		t.Fatal("Теги должны читаться")
	}
	if tags.Title != "Quantum Dreams" {
		t.Errorf("Ожидался Title: Quantum Dreams, получено: %s", tags.Title)
	}
	if tags.Artist != "Synth Lab" {
		t.Errorf("Ожидался Artist: Synth Lab, получено: %s", tags.Artist)
	}

	if _, ok := Read(strings.NewReader("not an audio file")); ok {
		t.Error("Для файла без тегов ok должен быть false")
	}
}

func TestResolveFallsBackToCatalog(t *testing.T) {
	useMemFs(t)

	track := api.Track{VideoID: "dQw4w9WgXcQ", Title: "Catalog Title", ChannelTitle: "Catalog Channel"}

	if err := filesystem.API().WriteFile("/music/tagged.mp3", id3("Tagged", "Artist"), 0o644); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}
	tags := Resolve("/music/tagged.mp3", track)
	if tags.Title != "Tagged" || tags.Artist != "Artist" {
		t.Errorf("Теги файла должны иметь приоритет: %+v", tags)
	}

	if err := filesystem.API().WriteFile("/music/plain.mp3", []byte("raw audio"), 0o644); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}
	tags = Resolve("/music/plain.mp3", track)
	if tags.Title != "Catalog Title" || tags.Artist != "Catalog Channel" {
		t.Errorf("Ожидались поля каталога, получено: %+v", tags)
	}

	tags = Resolve("/music/missing.mp3", api.Track{VideoID: "9bZkp7q5f_Q"})
	if tags.Title != "9bZkp7q5f_Q" || tags.Artist != "Unknown Artist" {
		t.Errorf("Неожиданные теги по умолчанию: %+v", tags)
	}
}

func TestStat(t *testing.T) {
	useMemFs(t)

	content := []byte("test content for file info")
	if err := filesystem.API().WriteFile("/music/test.mp3", content, 0o644); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}

	info, err := Stat("/music/test.mp3")
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("Ожидался размер %d, получено: %d", len(content), info.Size)
	}
	if info.Duration != 0 {
		t.Errorf("Для некорректного MP3 длительность должна быть 0, получено: %v", info.Duration)
	}
}

func TestStatNonExistentFile(t *testing.T) {
	useMemFs(t)

	_, err := Stat("/non/existent/file.mp3")
	if err == nil {
		t.Fatal("Ожидалась ошибка для несуществующего файла")
	}
	if !strings.Contains(err.Error(), "ошибка получения информации о файле") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

func TestDuration(t *testing.T) {
	useMemFs(t)

	if err := filesystem.API().WriteFile("/music/test.mp3", []byte("test content"), 0o644); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}

	duration, err := Duration("/music/test.mp3")
	if err == nil || !strings.Contains(err.Error(), "ошибка декодирования MP3") {
		t.Errorf("Ожидалась ошибка декодирования, получено: %v", err)
	}
	if duration != 0 {
		t.Errorf("Ожидалась длительность 0 при ошибке, получено: %v", duration)
	}

	if _, err := Duration("/music/missing.mp3"); err == nil || !strings.Contains(err.Error(), "ошибка открытия файла") {
		t.Errorf("Ожидалась ошибка открытия, получено: %v", err)
	}
}
