// Package mirror скачивает аудио треков с YouTube и зеркалирует его в S3
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/filesystem"
	"github.com/hazadus/quantum-radio/internal/log"
	"github.com/hazadus/quantum-radio/internal/metadata"
	"github.com/hazadus/quantum-radio/internal/player"
	"github.com/hazadus/quantum-radio/internal/s3"
)

var (
	// ErrNoAudio - у видео нет форматов со звуком
	ErrNoAudio = errors.New("аудио формат не найден")
	// ErrNoStorage - хранилище S3 не настроено
	ErrNoStorage = errors.New("хранилище S3 не настроено")
)

// YouTube - клиент YouTube (youtube.Client)
type YouTube interface {
	GetVideoContext(ctx context.Context, id string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Storage - хранилище зеркал (s3.Uploader)
type Storage interface {
	UploadFile(ctx context.Context, reader io.Reader, key string, object s3.Object) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	URL(key string) string
}

// Catalog - источник полей трека для тегов по умолчанию
type Catalog interface {
	Track(ctx context.Context, videoID string) (*api.Track, error)
}

// Stage - этап зеркалирования
type Stage int

// Этапы зеркалирования
const (
	StageDownload Stage = iota
	StageUpload
)

func (s Stage) String() string {
	if s == StageUpload {
		return "upload"
	}
	return "download"
}

// ProgressFunc получает число обработанных байт и общий размер (0, если
// размер неизвестен)
type ProgressFunc func(stage Stage, done, total int64)

// Download - скачанный файл
type Download struct {
	VideoID  string
	Path     string
	Title    string
	Author   string
	MimeType string
	Size     int64
	// Cached - файл уже был скачан ранее
	Cached bool
}

// Result - результат зеркалирования
type Result struct {
	Download *Download
	Key      string
	URL      string
	Tags     metadata.Tags
	// Skipped - объект уже есть в хранилище
	Skipped bool
}

// Service скачивает и зеркалирует аудио
type Service struct {
	youtube YouTube
	storage Storage
	catalog Catalog
	dir     string
}

// Option настраивает Service
type Option func(*Service)

// WithStorage включает загрузку в хранилище
func WithStorage(storage Storage) Option {
	return func(s *Service) { s.storage = storage }
}

// WithCatalog задает источник полей трека
func WithCatalog(catalog Catalog) Option {
	return func(s *Service) { s.catalog = catalog }
}

// NewService создает сервис, сохраняющий файлы в dir
func NewService(yt YouTube, dir string, opts ...Option) *Service {
	s := &Service{youtube: yt, dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileName возвращает имя файла (и ключ объекта) для видео
func FileName(videoID string) string {
	return videoID + ".mp3"
}

// ParseVideoID извлекает идентификатор видео из ссылки YouTube или
// возвращает сам идентификатор
func ParseVideoID(input string) (string, error) {
	id, err := youtube.ExtractVideoID(strings.TrimSpace(input))
	if err != nil || !player.IsValidVideoID(id) {
		return "", fmt.Errorf("не удалось извлечь ID видео из %q", input)
	}
	return id, nil
}

// Path возвращает путь к файлу видео в директории загрузок
func (s *Service) Path(videoID string) string {
	return filepath.Join(s.dir, FileName(videoID))
}

// Download скачивает лучший аудио формат видео. Уже скачанный файл
// повторно не загружается.
func (s *Service) Download(ctx context.Context, videoID string, progress ProgressFunc) (*Download, error) {
	if !player.IsValidVideoID(videoID) {
		return nil, fmt.Errorf("%w: %q", player.ErrInvalidVideoID, videoID)
	}

	fs := filesystem.API()
	path := s.Path(videoID)
	if info, err := fs.Stat(path); err == nil && !info.IsDir() {
		log.Infof("mirror: %s уже скачан", path)
		return &Download{VideoID: videoID, Path: path, Size: info.Size(), Cached: true}, nil
	}

	video, err := s.youtube.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о видео: %w", err)
	}

	format := bestAudioFormat(video.Formats)
	if format == nil {
		return nil, ErrNoAudio
	}
	log.Debugf("mirror: %s: формат itag=%d, %s, %d бит/с", videoID, format.ItagNo, format.MimeType, format.Bitrate)

	stream, size, err := s.youtube.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения потока: %w", err)
	}
	defer stream.Close()

	if err := fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории: %w", err)
	}

	// Файл появляется под итоговым именем только после полной загрузки
	partPath := path + ".part"
	file, err := fs.Create(partPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла: %w", err)
	}

	written, err := io.Copy(file, newProgressReader(stream, size, StageDownload, progress))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = fs.Remove(partPath)
		return nil, fmt.Errorf("ошибка скачивания: %w", err)
	}

	if err := fs.Rename(partPath, path); err != nil {
		_ = fs.Remove(partPath)
		return nil, fmt.Errorf("ошибка сохранения файла: %w", err)
	}

	log.Infof("mirror: %s скачан в %s (%d байт)", videoID, path, written)
	return &Download{
		VideoID:  videoID,
		Path:     path,
		Title:    video.Title,
		Author:   video.Author,
		MimeType: mediaType(format.MimeType),
		Size:     written,
	}, nil
}

// Mirror скачивает аудио видео и загружает его в хранилище под ключом
// FileName(videoID) с тегами в метаданных объекта
func (s *Service) Mirror(ctx context.Context, videoID string, progress ProgressFunc) (*Result, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	if !player.IsValidVideoID(videoID) {
		return nil, fmt.Errorf("%w: %q", player.ErrInvalidVideoID, videoID)
	}

	key := FileName(videoID)
	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		log.Infof("mirror: %s уже есть в хранилище", key)
		return &Result{Key: key, URL: s.storage.URL(key), Skipped: true}, nil
	}

	dl, err := s.Download(ctx, videoID, progress)
	if err != nil {
		return nil, err
	}

	tags := metadata.Resolve(dl.Path, s.fallbackTrack(ctx, dl))

	file, err := filesystem.API().Open(dl.Path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	object := s3.Object{
		ContentType: dl.MimeType,
		Metadata: map[string]string{
			"video-id": videoID,
			"title":    tags.Title,
			"channel":  tags.Artist,
		},
	}

	url, err := s.storage.UploadFile(ctx, newProgressReader(file, dl.Size, StageUpload, progress), key, object)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки в S3: %w", err)
	}

	log.Infof("mirror: %s загружен: %s", key, url)
	return &Result{Download: dl, Key: key, URL: url, Tags: tags}, nil
}

// fallbackTrack возвращает поля трека из каталога, а если его там нет -
// данные видео
func (s *Service) fallbackTrack(ctx context.Context, dl *Download) api.Track {
	if s.catalog != nil {
		track, err := s.catalog.Track(ctx, dl.VideoID)
		if err == nil {
			return *track
		}
		log.Warnf("mirror: трек %s не найден в каталоге: %v", dl.VideoID, err)
	}
	return api.Track{VideoID: dl.VideoID, Title: dl.Title, ChannelTitle: dl.Author}
}

// bestAudioFormat выбирает формат с наибольшим битрейтом, предпочитая
// MP4/M4A. Если форматов только со звуком нет, берется видео со звуком.
func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	audio := formats.Type("audio")
	if len(audio) == 0 {
		withSound := formats.WithAudioChannels()
		if len(withSound) == 0 {
			return nil
		}
		return &withSound[0]
	}

	best := &audio[0]
	for i := range audio {
		f := &audio[i]
		switch {
		case isMP4(f) && !isMP4(best):
			best = f
		case isMP4(f) == isMP4(best) && f.Bitrate > best.Bitrate:
			best = f
		}
	}
	return best
}

func isMP4(f *youtube.Format) bool {
	return strings.Contains(f.MimeType, "mp4") || strings.Contains(f.MimeType, "m4a")
}

func mediaType(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	return mt
}

// progressReader отслеживает прогресс чтения
type progressReader struct {
	io.Reader
	stage      Stage
	total      int64
	read       int64
	onProgress ProgressFunc
}

func newProgressReader(r io.Reader, total int64, stage Stage, onProgress ProgressFunc) io.Reader {
	if onProgress == nil {
		return r
	}
	return &progressReader{Reader: r, stage: stage, total: total, onProgress: onProgress}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	pr.read += int64(n)
	pr.onProgress(pr.stage, pr.read, pr.total)
	return n, err
}
