// Package playertest содержит поддельный движок воспроизведения для тестов
package playertest

import (
	"errors"
	"sync"

	"github.com/hazadus/quantum-radio/internal/player"
)

// ErrFake - ошибка, которую возвращают поддельные вызовы
var ErrFake = errors.New("fake engine failure")

// Engine - поддельный движок. По умолчанию движок и плееры сообщают о
// готовности только по явному вызову FireAPIReady / Handle.FireReady.
type Engine struct {
	mu sync.Mutex

	APIReadyOnLoad   bool  // Вызывать onReady синхронно внутри Load
	ReadyOnCreate    bool  // Вызывать OnReady синхронно внутри Create
	ReadyAfterCreate bool  // Вызывать OnReady в отдельной горутине после Create
	LoadErr          error // Ошибка Load
	CreateErr        error // Ошибка Create

	loads      int
	onAPIReady func()
	handles    []*Handle
}

// Load реализует player.Engine
func (e *Engine) Load(onReady func()) error {
	e.mu.Lock()
	e.loads++
	if e.LoadErr != nil {
		err := e.LoadErr
		e.mu.Unlock()
		return err
	}
	e.onAPIReady = onReady
	immediate := e.APIReadyOnLoad
	e.mu.Unlock()

	if immediate {
		onReady()
	}
	return nil
}

// Create реализует player.Engine
func (e *Engine) Create(videoID string, events player.Events) (player.Handle, error) {
	e.mu.Lock()
	if e.CreateErr != nil {
		err := e.CreateErr
		e.mu.Unlock()
		return nil, err
	}
	h := &Handle{VideoID: videoID, Loaded: []string{videoID}, Volume: 100, events: events}
	e.handles = append(e.handles, h)
	readyNow := e.ReadyOnCreate
	readyLater := e.ReadyAfterCreate
	e.mu.Unlock()

	if readyNow {
		events.OnReady()
	}
	if readyLater {
		go events.OnReady()
	}
	return h, nil
}

// FireAPIReady сообщает обертке о готовности движка
func (e *Engine) FireAPIReady() {
	e.mu.Lock()
	cb := e.onAPIReady
	e.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Loads возвращает число вызовов Load
func (e *Engine) Loads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

// Handles возвращает все созданные плееры
func (e *Engine) Handles() []*Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Handle(nil), e.handles...)
}

// Last возвращает последний созданный плеер или nil
func (e *Engine) Last() *Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.handles) == 0 {
		return nil
	}
	return e.handles[len(e.handles)-1]
}

// Seek - записанный вызов SeekTo
type Seek struct {
	Seconds        float64
	AllowSeekAhead bool
}

// Handle - поддельный плеер, записывающий все команды
type Handle struct {
	mu sync.Mutex

	VideoID   string
	Loaded    []string
	Volume    int
	Playing   bool
	Time      float64
	Length    float64
	Seeks     []Seek
	Calls     []string
	Destroyed bool

	Fail  bool // Все команды возвращают ошибку
	Panic bool // Все команды паникуют

	events player.Events
}

func (h *Handle) record(call string) error {
	h.Calls = append(h.Calls, call)
	if h.Panic {
		panic("fake engine panic in " + call)
	}
	if h.Fail {
		return ErrFake
	}
	return nil
}

// PlayVideo реализует player.Handle
func (h *Handle) PlayVideo() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("play"); err != nil {
		return err
	}
	h.Playing = true
	return nil
}

// PauseVideo реализует player.Handle
func (h *Handle) PauseVideo() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("pause"); err != nil {
		return err
	}
	h.Playing = false
	return nil
}

// SetVolume реализует player.Handle
func (h *Handle) SetVolume(percent int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("volume"); err != nil {
		return err
	}
	h.Volume = percent
	return nil
}

// LoadVideoByID реализует player.Handle
func (h *Handle) LoadVideoByID(videoID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("load"); err != nil {
		return err
	}
	h.VideoID = videoID
	h.Loaded = append(h.Loaded, videoID)
	h.Time = 0
	return nil
}

// CurrentTime реализует player.Handle
func (h *Handle) CurrentTime() (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("time"); err != nil {
		return 0, err
	}
	return h.Time, nil
}

// Duration реализует player.Handle
func (h *Handle) Duration() (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("duration"); err != nil {
		return 0, err
	}
	return h.Length, nil
}

// SeekTo реализует player.Handle
func (h *Handle) SeekTo(seconds float64, allowSeekAhead bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("seek"); err != nil {
		return err
	}
	h.Seeks = append(h.Seeks, Seek{Seconds: seconds, AllowSeekAhead: allowSeekAhead})
	h.Time = seconds
	return nil
}

// Destroy реализует player.Handle
func (h *Handle) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.record("destroy"); err != nil {
		return err
	}
	h.Destroyed = true
	return nil
}

// Set изменяет поля плеера под мьютексом
func (h *Handle) Set(fn func(h *Handle)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h)
}

// Record - копия записанных плеером данных
type Record struct {
	VideoID   string
	Loaded    []string
	Volume    int
	Playing   bool
	Time      float64
	Length    float64
	Seeks     []Seek
	Calls     []string
	Destroyed bool
}

// Snapshot возвращает копию записанных данных
func (h *Handle) Snapshot() Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Record{
		VideoID:   h.VideoID,
		Loaded:    append([]string(nil), h.Loaded...),
		Volume:    h.Volume,
		Playing:   h.Playing,
		Time:      h.Time,
		Length:    h.Length,
		Seeks:     append([]Seek(nil), h.Seeks...),
		Calls:     append([]string(nil), h.Calls...),
		Destroyed: h.Destroyed,
	}
}

// FireReady сообщает о готовности плеера
func (h *Handle) FireReady() {
	if h.events.OnReady != nil {
		h.events.OnReady()
	}
}

// FireState сообщает о смене состояния
func (h *Handle) FireState(s player.State) {
	if h.events.OnStateChange != nil {
		h.events.OnStateChange(s)
	}
}

// FireError сообщает об ошибке
func (h *Handle) FireError(code player.ErrorCode) {
	if h.events.OnError != nil {
		h.events.OnError(code)
	}
}
