// Package data хранит на диске снимок последнего успешно загруженного каталога
package data

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/metafates/gache"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/filesystem"
)

// FileName - имя файла снимка в директории кэша
const FileName = "catalog.json"

// Snapshot - каталог вместе со статистикой
type Snapshot struct {
	Tracks  []api.Track `json:"tracks"`
	Stats   *api.Stats  `json:"stats"`
	SavedAt time.Time   `json:"saved_at"`
}

// Store читает и записывает снимок каталога
type Store struct {
	mu    sync.Mutex
	cache *gache.Cache[*Snapshot]
}

// NewStore создает хранилище в директории dir. Снимок старше lifetime
// считается устаревшим; нулевой lifetime - бессрочное хранение.
func NewStore(dir string, lifetime time.Duration) *Store {
	return &Store{
		cache: gache.New[*Snapshot](&gache.Options{
			Path:       filepath.Join(dir, FileName),
			Lifetime:   lifetime,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

// Load возвращает сохраненный снимок. ok равен false, если снимка нет
// или он устарел.
func (s *Store) Load() (snapshot Snapshot, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, expired, err := s.cache.Get()
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("ошибка чтения снимка каталога: %w", err)
	}
	if expired || snap == nil {
		return Snapshot{}, false, nil
	}
	return *snap, true, nil
}

// Save сохраняет снимок
func (s *Store) Save(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = time.Now()
	}
	if err := s.cache.Set(&snapshot); err != nil {
		return fmt.Errorf("ошибка записи снимка каталога: %w", err)
	}
	return nil
}
