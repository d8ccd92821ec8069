// Package mpv реализует движок воспроизведения поверх JSON-IPC mpv.
// Видео открывается по ссылке YouTube, mpv сам получает аудиопоток.
package mpv

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/hazadus/quantum-radio/internal/log"
	"github.com/hazadus/quantum-radio/internal/player"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// Engine запускает отдельный процесс mpv на каждый плеер
type Engine struct {
	path      string
	socketDir string

	mu     sync.Mutex
	binary string
}

// New создает движок. path - имя или путь исполняемого файла mpv.
func New(path string) *Engine {
	if path == "" {
		path = "mpv"
	}
	return &Engine{path: path, socketDir: os.TempDir()}
}

// Load находит исполняемый файл mpv и сразу сообщает о готовности
func (e *Engine) Load(onReady func()) error {
	binary, err := exec.LookPath(e.path)
	if err != nil {
		return fmt.Errorf("mpv не найден (%s): %w", e.path, err)
	}

	e.mu.Lock()
	e.binary = binary
	e.mu.Unlock()

	log.Infof("mpv: используется %s", binary)
	onReady()
	return nil
}

// Create запускает mpv на паузе с загруженным видео и подписывается на события
func (e *Engine) Create(videoID string, events player.Events) (player.Handle, error) {
	e.mu.Lock()
	binary := e.binary
	e.mu.Unlock()
	if binary == "" {
		return nil, errors.New("движок mpv не загружен")
	}

	socketPath, err := newSocketPath(e.socketDir)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(binary, Args(socketPath, videoID)...)
	cmd.SysProcAttr = sysProcAttr()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ошибка запуска mpv: %w", err)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	if err := waitForSocket(socketPath, exited, socketWaitRetries, socketWaitDelay); err != nil {
		log.Warnf("mpv: сокет не готов, процесс будет остановлен")
		_ = killProcess(cmd)
		return nil, fmt.Errorf("сокет mpv не готов: %w", err)
	}

	h, err := attach(socketPath, events)
	if err != nil {
		_ = killProcess(cmd)
		return nil, err
	}
	h.cmd = cmd
	h.exited = exited

	log.Infof("mpv: запущен плеер для видео %s", videoID)
	if events.OnReady != nil {
		events.OnReady()
	}
	return h, nil
}

// Args возвращает аргументы запуска mpv для видео
func Args(socketPath, videoID string) []string {
	return []string{
		"--no-terminal",
		"--really-quiet",
		"--no-video",
		"--idle=yes",
		"--pause",
		"--input-ipc-server=" + socketPath,
		WatchURL(videoID),
	}
}

// WatchURL возвращает ссылку на видео YouTube
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func newSocketPath(dir string) (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("ошибка генерации имени сокета: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("quantum-radio-%x.sock", b)), nil
}

// Handle управляет одним процессом mpv
type Handle struct {
	socketPath string
	client     *client
	listener   *listener

	cmd    *exec.Cmd
	exited chan struct{}
	once   sync.Once
}

// attach подключается к уже запущенному mpv
func attach(socketPath string, events player.Events) (*Handle, error) {
	l, err := listen(socketPath, events)
	if err != nil {
		return nil, err
	}
	return &Handle{
		socketPath: socketPath,
		client:     &client{socketPath: socketPath},
		listener:   l,
	}, nil
}

func (h *Handle) set(property string, value any) error {
	_, err := h.client.command("set_property", property, value)
	return err
}

// PlayVideo снимает паузу
func (h *Handle) PlayVideo() error {
	return h.set("pause", false)
}

// PauseVideo ставит на паузу
func (h *Handle) PauseVideo() error {
	return h.set("pause", true)
}

// SetVolume задает громкость mpv в процентах
func (h *Handle) SetVolume(percent int) error {
	return h.set("volume", percent)
}

// LoadVideoByID заменяет текущий файл новым видео
func (h *Handle) LoadVideoByID(videoID string) error {
	_, err := h.client.command("loadfile", WatchURL(videoID), "replace")
	return err
}

// CurrentTime возвращает позицию в секундах
func (h *Handle) CurrentTime() (float64, error) {
	return h.float("time-pos")
}

// Duration возвращает длительность в секундах
func (h *Handle) Duration() (float64, error) {
	return h.float("duration")
}

func (h *Handle) float(name string) (float64, error) {
	data, err := h.client.command("get_property", name)
	if errors.Is(err, errPropertyUnavailable) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("свойство %s: ожидалось число, получено %T", name, data)
	}
	return v, nil
}

// SeekTo перематывает на абсолютную позицию. Без allowSeekAhead
// перемотка идет по ключевым кадрам.
func (h *Handle) SeekTo(seconds float64, allowSeekAhead bool) error {
	mode := "absolute+keyframes"
	if allowSeekAhead {
		mode = "absolute"
	}
	_, err := h.client.command("seek", seconds, mode)
	return err
}

// Destroy завершает mpv и удаляет сокет
func (h *Handle) Destroy() error {
	h.once.Do(func() {
		h.listener.stop()
		_, _ = h.client.command("quit")

		if h.cmd != nil {
			select {
			case <-h.exited:
			case <-time.After(quitTimeout):
				log.Warnf("mpv: процесс не завершился, принудительная остановка")
				_ = killProcess(h.cmd)
			}
		}
		_ = os.Remove(h.socketPath)
	})
	return nil
}
