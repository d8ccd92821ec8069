// Package playback содержит общее состояние воспроизведения и его привязку к плееру
package playback

import (
	"math"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Snapshot - копия состояния воспроизведения
type Snapshot struct {
	Track   mo.Option[string] // Идентификатор текущего видео
	Playing bool
	Volume  float64 // Громкость в диапазоне 0..1
}

// Change описывает одно изменение состояния
type Change struct {
	Prev Snapshot
	Next Snapshot
	// FromPlayer - изменение отражает событие плеера, а не действие пользователя
	FromPlayer bool
}

// TrackChanged сообщает, сменился ли текущий трек
func (c Change) TrackChanged() bool {
	return c.Prev.Track != c.Next.Track
}

type subscription struct {
	id int
	fn func(Change)
}

// State - наблюдаемое состояние воспроизведения. Наблюдатели вызываются
// после каждого изменения в порядке подписки, вне блокировки.
type State struct {
	mu          sync.Mutex
	current     Snapshot
	subscribers []subscription
	nextID      int
}

// New создает состояние: трек не выбран, пауза, полная громкость
func New() *State {
	return &State{current: Snapshot{Track: mo.None[string](), Volume: 1}}
}

// Snapshot возвращает текущее состояние
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrentTrack выбирает трек и включает воспроизведение.
// Пустой идентификатор снимает выбор и останавливает воспроизведение.
func (s *State) SetCurrentTrack(videoID string) {
	s.update(false, func(snap *Snapshot) {
		if videoID == "" {
			snap.Track = mo.None[string]()
			snap.Playing = false
			return
		}
		snap.Track = mo.Some(videoID)
		snap.Playing = true
	})
}

// SetPlaying включает или выключает воспроизведение
func (s *State) SetPlaying(playing bool) {
	s.update(false, func(snap *Snapshot) { snap.Playing = playing })
}

// SyncPlaying отражает состояние, о котором сообщил плеер
func (s *State) SyncPlaying(playing bool) {
	s.update(true, func(snap *Snapshot) { snap.Playing = playing })
}

// TogglePlay переключает воспроизведение
func (s *State) TogglePlay() {
	s.update(false, func(snap *Snapshot) { snap.Playing = !snap.Playing })
}

// SetVolume задает громкость, ограничивая ее диапазоном 0..1
func (s *State) SetVolume(v float64) {
	if math.IsNaN(v) {
		v = 0
	}
	s.update(false, func(snap *Snapshot) { snap.Volume = lo.Clamp(v, 0, 1) })
}

// Subscribe добавляет наблюдателя и возвращает функцию отписки
func (s *State) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subscribers = lo.Filter(s.subscribers, func(sub subscription, _ int) bool { return sub.id != id })
	}
}

func (s *State) update(fromPlayer bool, mutate func(*Snapshot)) {
	s.mu.Lock()
	prev := s.current
	mutate(&s.current)
	next := s.current
	subscribers := append([]subscription(nil), s.subscribers...)
	s.mu.Unlock()

	if prev == next {
		return
	}

	change := Change{Prev: prev, Next: next, FromPlayer: fromPlayer}
	for _, sub := range subscribers {
		sub.fn(change)
	}
}
