// Package stream реализует движок воспроизведения MP3 по HTTP через динамики beep.
// Аудио видео берется из зеркала: {audio_base_url}/{videoId}.mp3.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"

	"github.com/hazadus/quantum-radio/internal/log"
	"github.com/hazadus/quantum-radio/internal/player"
	"github.com/hazadus/quantum-radio/internal/streaming"
)

// SampleRate - частота дискретизации динамиков
const SampleRate = beep.SampleRate(44100)

// Output - устройство вывода звука
type Output interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// speakerOutput выводит звук через пакет speaker
type speakerOutput struct{}

func (speakerOutput) Init(sr beep.SampleRate, bufferSize int) error { return speaker.Init(sr, bufferSize) }
func (speakerOutput) Play(s beep.Streamer)                          { speaker.Play(s) }
func (speakerOutput) Clear()                                        { speaker.Clear() }
func (speakerOutput) Lock()                                         { speaker.Lock() }
func (speakerOutput) Unlock()                                       { speaker.Unlock() }

// Decoder декодирует аудиопоток
type Decoder func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// Option настраивает движок
type Option func(*Engine)

// WithOutput задает устройство вывода
func WithOutput(out Output) Option {
	return func(e *Engine) { e.output = out }
}

// WithDecoder задает декодер вместо MP3
func WithDecoder(d Decoder) Option {
	return func(e *Engine) { e.decode = d }
}

// WithBufferSize задает размер буфера сетевого чтения
func WithBufferSize(n int) Option {
	return func(e *Engine) { e.bufferSize = n }
}

// Engine воспроизводит аудио, потоково читая его по HTTP
type Engine struct {
	baseURL    string
	output     Output
	decode     Decoder
	bufferSize int

	once    sync.Once
	initErr error
}

// New создает движок для зеркала с адресом baseURL
func New(baseURL string, opts ...Option) *Engine {
	e := &Engine{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		output:     speakerOutput{},
		decode:     mp3.Decode,
		bufferSize: streaming.DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AudioURL возвращает адрес аудиофайла видео
func (e *Engine) AudioURL(videoID string) string {
	return e.baseURL + "/" + videoID + ".mp3"
}

// Load инициализирует динамики один раз и сообщает о готовности
func (e *Engine) Load(onReady func()) error {
	if e.baseURL == "" {
		return errors.New("не задан audio_base_url для потокового движка")
	}

	e.once.Do(func() {
		e.initErr = e.output.Init(SampleRate, SampleRate.N(time.Second/5))
	})
	if e.initErr != nil {
		return fmt.Errorf("ошибка инициализации динамиков: %w", e.initErr)
	}

	onReady()
	return nil
}

// Create открывает поток видео на паузе и сообщает о готовности
func (e *Engine) Create(videoID string, events player.Events) (player.Handle, error) {
	h := &Handle{engine: e, events: events, percent: 100}
	if err := h.open(videoID); err != nil {
		return nil, err
	}

	if events.OnReady != nil {
		events.OnReady()
	}
	return h, nil
}

// Handle воспроизводит один поток за раз
type Handle struct {
	engine *Engine
	events player.Events

	mu      sync.Mutex
	cancel  context.CancelFunc
	reader  *streaming.Reader
	decoder beep.StreamSeekCloser
	format  beep.Format
	ctrl    *beep.Ctrl
	volume  *effects.Volume
	percent int
	token   int // Поколение потока; окончание старого потока игнорируется
}

// open подключается к потоку и ставит его в очередь динамиков на паузе
func (h *Handle) open(videoID string) error {
	ctx, cancel := context.WithCancel(context.Background())
	url := h.engine.AudioURL(videoID)

	reader, err := streaming.Open(ctx, url, h.engine.bufferSize)
	if err != nil {
		cancel()
		return fmt.Errorf("ошибка открытия потока %s: %w", url, err)
	}

	decoder, format, err := h.engine.decode(reader)
	if err != nil {
		reader.Close()
		cancel()
		return fmt.Errorf("ошибка декодирования потока: %w", err)
	}

	var source beep.Streamer = decoder
	if format.SampleRate != SampleRate {
		source = beep.Resample(4, format.SampleRate, SampleRate, decoder)
	}

	h.mu.Lock()
	h.token++
	token := h.token
	ctrl := &beep.Ctrl{Streamer: source, Paused: true}
	volume := &effects.Volume{Streamer: ctrl, Base: 2}
	applyVolume(volume, h.percent)

	h.cancel = cancel
	h.reader = reader
	h.decoder = decoder
	h.format = format
	h.ctrl = ctrl
	h.volume = volume
	h.mu.Unlock()

	h.engine.output.Play(beep.Seq(volume, beep.Callback(func() {
		// Вызывается из горутины динамиков под их блокировкой
		go h.finished(token)
	})))

	log.Infof("stream: открыт поток %s", url)
	return nil
}

// finished сообщает об окончании потока, если он еще актуален
func (h *Handle) finished(token int) {
	h.mu.Lock()
	current := token == h.token
	h.mu.Unlock()
	if !current {
		return
	}

	h.emit(player.StateEnded)
}

// close останавливает текущий поток
func (h *Handle) close() {
	h.mu.Lock()
	h.token++
	decoder, cancel := h.decoder, h.cancel
	h.decoder, h.reader, h.ctrl, h.volume, h.cancel = nil, nil, nil, nil, nil
	h.mu.Unlock()

	h.engine.output.Clear()
	if decoder != nil {
		decoder.Close()
	}
	if cancel != nil {
		cancel()
	}
}

func (h *Handle) emit(s player.State) {
	if h.events.OnStateChange != nil {
		h.events.OnStateChange(s)
	}
}

func (h *Handle) setPaused(paused bool) error {
	h.mu.Lock()
	ctrl := h.ctrl
	h.mu.Unlock()
	if ctrl == nil {
		return errors.New("поток не открыт")
	}

	out := h.engine.output
	out.Lock()
	ctrl.Paused = paused
	out.Unlock()

	if paused {
		h.emit(player.StatePaused)
	} else {
		h.emit(player.StatePlaying)
	}
	return nil
}

// PlayVideo снимает поток с паузы
func (h *Handle) PlayVideo() error {
	return h.setPaused(false)
}

// PauseVideo ставит поток на паузу
func (h *Handle) PauseVideo() error {
	return h.setPaused(true)
}

// SetVolume задает громкость в процентах
func (h *Handle) SetVolume(percent int) error {
	h.mu.Lock()
	h.percent = percent
	volume := h.volume
	h.mu.Unlock()

	if volume != nil {
		out := h.engine.output
		out.Lock()
		applyVolume(volume, percent)
		out.Unlock()
	}
	return nil
}

// applyVolume переводит проценты в логарифмическую громкость beep
func applyVolume(v *effects.Volume, percent int) {
	v.Silent = percent <= 0
	if percent > 0 {
		v.Volume = math.Log2(float64(percent) / 100)
	}
}

// LoadVideoByID закрывает текущий поток и открывает новый на паузе
func (h *Handle) LoadVideoByID(videoID string) error {
	h.close()
	if err := h.open(videoID); err != nil {
		return err
	}
	h.emit(player.StateCued)
	return nil
}

// CurrentTime возвращает позицию в секундах
func (h *Handle) CurrentTime() (float64, error) {
	h.mu.Lock()
	decoder, format := h.decoder, h.format
	h.mu.Unlock()
	if decoder == nil {
		return 0, nil
	}

	out := h.engine.output
	out.Lock()
	pos := decoder.Position()
	out.Unlock()
	return format.SampleRate.D(pos).Seconds(), nil
}

// Duration возвращает длительность из декодера. Если поток не позволяет
// узнать длину, она оценивается по доле прочитанных байт.
func (h *Handle) Duration() (float64, error) {
	h.mu.Lock()
	decoder, format, reader := h.decoder, h.format, h.reader
	h.mu.Unlock()
	if decoder == nil {
		return 0, nil
	}

	out := h.engine.output
	out.Lock()
	length, pos := decoder.Len(), decoder.Position()
	out.Unlock()

	if length > 0 {
		return format.SampleRate.D(length).Seconds(), nil
	}
	return reader.Estimate(format.SampleRate.D(pos)).Seconds(), nil
}

// SeekTo передает перемотку декодеру. Потоковый MP3 без поддержки
// io.Seeker вернет ошибку декодера.
func (h *Handle) SeekTo(seconds float64, _ bool) error {
	h.mu.Lock()
	decoder, format := h.decoder, h.format
	h.mu.Unlock()
	if decoder == nil {
		return errors.New("поток не открыт")
	}

	out := h.engine.output
	out.Lock()
	defer out.Unlock()

	target := format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if length := decoder.Len(); length > 0 && target >= length {
		target = length - 1
	}
	return decoder.Seek(max(0, target))
}

// Destroy останавливает поток
func (h *Handle) Destroy() error {
	h.close()
	return nil
}
