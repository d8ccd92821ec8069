// Package player содержит обертку над движком воспроизведения: отложенную
// загрузку движка, создание единственного плеера и очередь обработчиков,
// ожидающих его готовности.
package player

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/hazadus/quantum-radio/internal/log"
)

// ErrInvalidVideoID возвращается LoadVideo для идентификатора неверного формата
var ErrInvalidVideoID = errors.New("invalid video id")

var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// IsValidVideoID проверяет формат идентификатора видео YouTube
func IsValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// VolumeLevel переводит громкость из диапазона 0..1 в целые 0..100
func VolumeLevel(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(lo.Clamp(v, 0, 1) * 100))
}

// Phase - этап жизненного цикла обертки
type Phase int

// Этапы жизненного цикла
const (
	PhaseUninitialized Phase = iota // Движок не загружен
	PhaseAPIReady                   // Движок загружен, плеера нет
	PhaseNotReady                   // Плеер создается или еще не готов
	PhaseReady                      // Плеер готов и привязан к видео
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseAPIReady:
		return "api-ready"
	case PhaseNotReady:
		return "not-ready"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Player управляет единственным плеером движка. Все вызовы движка
// выполняются без удержания мьютекса, ошибки и паники движка
// логируются и не передаются вызывающему.
type Player struct {
	engine Engine

	mu          sync.Mutex
	apiLoading  bool
	apiReady    bool
	creating    bool
	handle      Handle
	playerReady bool
	earlyReady  bool
	gen         uint64 // Поколение плеера; события старых плееров игнорируются
	requested   string
	bound       string
	playing     bool

	readyQueue     []func()
	flushing       bool
	stateListeners []func(playing bool)
	errorListeners []func(code ErrorCode)
}

// New создает обертку над движком. Движок загружается при первом LoadVideo.
func New(engine Engine) *Player {
	return &Player{engine: engine}
}

// Phase возвращает текущий этап жизненного цикла
func (p *Player) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.handle != nil && p.playerReady:
		return PhaseReady
	case p.handle != nil || p.creating:
		return PhaseNotReady
	case p.apiReady:
		return PhaseAPIReady
	default:
		return PhaseUninitialized
	}
}

// BoundVideo возвращает идентификатор видео, загруженного в плеер
func (p *Player) BoundVideo() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bound
}

// RequestedVideo возвращает последний запрошенный идентификатор видео
func (p *Player) RequestedVideo() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requested
}

// IsPlaying сообщает, находится ли плеер в состоянии воспроизведения
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// LoadVideo запрашивает загрузку видео. Неверный идентификатор отклоняется
// до обращения к движку. Если плеер готов, он переключается на новое видео
// без пересоздания; иначе видео будет загружено, когда плеер появится.
// Последний запрос побеждает.
func (p *Player) LoadVideo(videoID string) error {
	if !IsValidVideoID(videoID) {
		log.Warnf("player: отклонен неверный идентификатор видео %q", videoID)
		return fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID)
	}

	p.mu.Lock()
	p.requested = videoID

	switch {
	case p.handle != nil && p.playerReady:
		h := p.handle
		p.bound = videoID
		p.mu.Unlock()
		log.Infof("player: переключение на видео %s", videoID)
		p.guard("loadVideoById", func() error { return h.LoadVideoByID(videoID) })
		return nil

	case p.handle != nil || p.creating:
		// Обработчик готовности переключит плеер на запрошенное видео
		p.mu.Unlock()
		return nil

	case p.apiReady:
		p.mu.Unlock()
		p.create()
		return nil

	default:
		start := !p.apiLoading
		p.apiLoading = true
		p.mu.Unlock()
		if start {
			p.loadAPI()
		}
		return nil
	}
}

// loadAPI однократно загружает движок
func (p *Player) loadAPI() {
	ok := p.guard("load", func() error { return p.engine.Load(p.handleAPIReady) })
	if !ok {
		p.mu.Lock()
		p.apiLoading = false
		p.mu.Unlock()
	}
}

func (p *Player) handleAPIReady() {
	p.mu.Lock()
	if p.apiReady {
		p.mu.Unlock()
		return
	}
	p.apiReady = true
	p.apiLoading = false
	pending := p.requested != ""
	p.mu.Unlock()

	log.Debugf("player: движок готов")
	if pending {
		p.create()
	}
}

// create создает плеер для запрошенного видео, если его еще нет
func (p *Player) create() {
	p.mu.Lock()
	if !p.apiReady || p.handle != nil || p.creating || p.requested == "" {
		p.mu.Unlock()
		return
	}
	p.creating = true
	p.gen++
	gen := p.gen
	videoID := p.requested
	p.mu.Unlock()

	events := Events{
		OnReady:       func() { p.handleReady(gen) },
		OnStateChange: func(s State) { p.handleStateChange(gen, s) },
		OnError:       func(c ErrorCode) { p.handleError(gen, c) },
	}

	var h Handle
	ok := p.guard("create", func() error {
		var err error
		h, err = p.engine.Create(videoID, events)
		return err
	})

	p.mu.Lock()
	p.creating = false

	if gen != p.gen {
		// Обертку уничтожили, пока плеер создавался
		p.mu.Unlock()
		if ok && h != nil {
			p.guard("destroy", h.Destroy)
		}
		p.create()
		return
	}

	if !ok || h == nil {
		p.earlyReady = false
		p.mu.Unlock()
		return
	}

	p.handle = h
	p.bound = videoID
	early := p.earlyReady
	p.earlyReady = false
	p.mu.Unlock()

	log.Infof("player: создан плеер для видео %s", videoID)
	if early {
		p.handleReady(gen)
	}
}

func (p *Player) handleReady(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.playerReady {
		p.mu.Unlock()
		return
	}
	if p.handle == nil {
		// Движок сообщил о готовности до возврата из Create
		p.earlyReady = true
		p.mu.Unlock()
		return
	}

	p.playerReady = true
	p.flushing = true
	h := p.handle
	redirect := ""
	if p.requested != "" && p.requested != p.bound {
		redirect = p.requested
		p.bound = redirect
	}
	p.mu.Unlock()

	log.Debugf("player: плеер готов")
	if redirect != "" {
		p.guard("loadVideoById", func() error { return h.LoadVideoByID(redirect) })
	}
	p.flushReady(gen)
}

// flushReady выполняет накопленные обработчики готовности по одному,
// в порядке регистрации
func (p *Player) flushReady(gen uint64) {
	for {
		p.mu.Lock()
		if gen != p.gen || len(p.readyQueue) == 0 {
			if gen == p.gen {
				p.flushing = false
			}
			p.mu.Unlock()
			return
		}
		cb := p.readyQueue[0]
		p.readyQueue = p.readyQueue[1:]
		p.mu.Unlock()

		p.runCallback("ready", cb)
	}
}

// OnPlayerReady регистрирует обработчик, который будет вызван ровно один раз,
// когда плеер станет готов. Если плеер уже готов, обработчик вызывается сразу.
func (p *Player) OnPlayerReady(cb func()) {
	if cb == nil {
		return
	}

	p.mu.Lock()
	if p.playerReady && !p.flushing {
		p.mu.Unlock()
		p.runCallback("ready", cb)
		return
	}
	p.readyQueue = append(p.readyQueue, cb)
	p.mu.Unlock()
}

// OnStateChange регистрирует обработчик смены состояния. Обработчик получает
// true только для состояния воспроизведения.
func (p *Player) OnStateChange(cb func(playing bool)) {
	if cb == nil {
		return
	}
	p.mu.Lock()
	p.stateListeners = append(p.stateListeners, cb)
	p.mu.Unlock()
}

// OnError регистрирует обработчик ошибок движка
func (p *Player) OnError(cb func(code ErrorCode)) {
	if cb == nil {
		return
	}
	p.mu.Lock()
	p.errorListeners = append(p.errorListeners, cb)
	p.mu.Unlock()
}

func (p *Player) handleStateChange(gen uint64, s State) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	playing := s == StatePlaying
	p.playing = playing
	listeners := slices.Clone(p.stateListeners)
	p.mu.Unlock()

	log.Debugf("player: состояние %s", s)
	for _, cb := range listeners {
		p.runCallback("state", func() { cb(playing) })
	}
}

func (p *Player) handleError(gen uint64, code ErrorCode) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	videoID := p.bound
	listeners := slices.Clone(p.errorListeners)
	p.mu.Unlock()

	log.Errorf("player: ошибка %d для видео %s: %s", int(code), videoID, code)
	for _, cb := range listeners {
		p.runCallback("error", func() { cb(code) })
	}
}

// readyHandle возвращает плеер, если он готов принимать команды
func (p *Player) readyHandle() Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playerReady {
		return nil
	}
	return p.handle
}

// PlayVideo запускает воспроизведение; без готового плеера ничего не делает
func (p *Player) PlayVideo() {
	if h := p.readyHandle(); h != nil {
		p.guard("playVideo", h.PlayVideo)
	}
}

// PauseVideo ставит воспроизведение на паузу; без готового плеера ничего не делает
func (p *Player) PauseVideo() {
	if h := p.readyHandle(); h != nil {
		p.guard("pauseVideo", h.PauseVideo)
	}
}

// SetVolume задает громкость в диапазоне 0..1
func (p *Player) SetVolume(v float64) {
	if h := p.readyHandle(); h != nil {
		level := VolumeLevel(v)
		p.guard("setVolume", func() error { return h.SetVolume(level) })
	}
}

// CurrentTime возвращает позицию воспроизведения в секундах или 0
func (p *Player) CurrentTime() float64 {
	return p.query("getCurrentTime", func(h Handle) (float64, error) { return h.CurrentTime() })
}

// Duration возвращает длительность видео в секундах или 0
func (p *Player) Duration() float64 {
	return p.query("getDuration", func(h Handle) (float64, error) { return h.Duration() })
}

func (p *Player) query(op string, fn func(Handle) (float64, error)) float64 {
	h := p.readyHandle()
	if h == nil {
		return 0
	}

	var value float64
	ok := p.guard(op, func() error {
		var err error
		value, err = fn(h)
		return err
	})
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return value
}

// SeekTo перематывает на позицию в секундах, разрешая переход за буфер
func (p *Player) SeekTo(seconds float64) {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	if h := p.readyHandle(); h != nil {
		p.guard("seekTo", func() error { return h.SeekTo(seconds, true) })
	}
}

// Destroy уничтожает плеер и сбрасывает обработчики. Загруженный движок
// остается готовым, следующий LoadVideo создаст новый плеер.
func (p *Player) Destroy() {
	p.mu.Lock()
	h := p.handle
	p.handle = nil
	p.playerReady = false
	p.earlyReady = false
	p.gen++
	p.requested = ""
	p.bound = ""
	p.playing = false
	p.readyQueue = nil
	p.flushing = false
	p.stateListeners = nil
	p.errorListeners = nil
	p.mu.Unlock()

	if h != nil {
		p.guard("destroy", h.Destroy)
		log.Infof("player: плеер уничтожен")
	}
}

// guard вызывает движок, перехватывая ошибки и паники. Возвращает false,
// если вызов не удался.
func (p *Player) guard(op string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("player: паника в %s: %v", op, r)
			ok = false
		}
	}()

	if err := fn(); err != nil {
		log.Errorf("player: ошибка %s: %v", op, err)
		return false
	}
	return true
}

// runCallback вызывает обработчик пользователя, не давая его панике
// прервать остальные обработчики
func (p *Player) runCallback(kind string, cb func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("player: паника в обработчике %s: %v", kind, r)
		}
	}()
	cb()
}
