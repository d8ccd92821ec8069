// Package track содержит логику загрузки каталога треков
package track

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/data"
	"github.com/hazadus/quantum-radio/internal/log"
)

// Source - источник каталога (REST API)
type Source interface {
	Tracks(ctx context.Context, query api.TrackQuery) ([]api.Track, error)
	Stats(ctx context.Context) (*api.Stats, error)
	Track(ctx context.Context, videoID string) (*api.Track, error)
}

// Store - хранилище снимка каталога
type Store interface {
	Load() (data.Snapshot, bool, error)
	Save(data.Snapshot) error
}

// Result - загруженный каталог
type Result struct {
	Tracks []api.Track
	Stats  *api.Stats
	// Stale - каталог взят из снимка, потому что API недоступно
	Stale   bool
	SavedAt time.Time
	// Err - ошибка загрузки, из-за которой использован снимок
	Err error
}

// Manager загружает каталог и держит последний загруженный список
type Manager struct {
	source Source
	store  Store

	mu     sync.RWMutex
	tracks []api.Track
}

// NewManager создает новый экземпляр Manager. store может быть nil.
func NewManager(source Source, store Store) *Manager {
	return &Manager{
		source: source,
		store:  store,
	}
}

// Load параллельно загружает треки и статистику. При успехе каталог
// сохраняется в снимок. При ошибке возвращается снимок с флагом Stale,
// а если снимка нет - исходная ошибка. Повторных попыток нет.
func (m *Manager) Load(ctx context.Context) (Result, error) {
	var (
		tracks []api.Track
		stats  *api.Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tracks, err = m.source.Tracks(gctx, api.TrackQuery{})
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = m.source.Stats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return m.fallback(err)
	}

	m.setTracks(tracks)
	result := Result{Tracks: tracks, Stats: stats, SavedAt: time.Now()}

	if m.store != nil {
		snapshot := data.Snapshot{Tracks: tracks, Stats: stats, SavedAt: result.SavedAt}
		if err := m.store.Save(snapshot); err != nil {
			log.Warnf("track: снимок каталога не сохранен: %v", err)
		}
	}

	log.Infof("track: загружено треков: %d", len(tracks))
	return result, nil
}

func (m *Manager) fallback(cause error) (Result, error) {
	log.Errorf("track: ошибка загрузки каталога: %v", cause)
	if m.store == nil || errors.Is(cause, context.Canceled) {
		return Result{}, cause
	}

	snapshot, ok, err := m.store.Load()
	if err != nil {
		log.Warnf("track: %v", err)
	}
	if !ok {
		return Result{}, cause
	}

	m.setTracks(snapshot.Tracks)
	log.Infof("track: использован снимок каталога от %s", snapshot.SavedAt.Format(time.DateTime))
	return Result{
		Tracks:  snapshot.Tracks,
		Stats:   snapshot.Stats,
		Stale:   true,
		SavedAt: snapshot.SavedAt,
		Err:     cause,
	}, nil
}

func (m *Manager) setTracks(tracks []api.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = tracks
}

// ListTracks возвращает последний загруженный список треков
func (m *Manager) ListTracks() []api.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tracks
}

// Track возвращает трек по идентификатору: сначала из загруженного
// списка, затем из API
func (m *Manager) Track(ctx context.Context, videoID string) (*api.Track, error) {
	m.mu.RLock()
	for i := range m.tracks {
		if m.tracks[i].VideoID == videoID {
			t := m.tracks[i]
			m.mu.RUnlock()
			return &t, nil
		}
	}
	m.mu.RUnlock()

	t, err := m.source.Track(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("трек %s: %w", videoID, err)
	}
	return t, nil
}
