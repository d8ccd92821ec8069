package player

import "fmt"

// State - состояние воспроизведения, о котором сообщает движок
type State int

// Коды состояний совпадают с кодами встраиваемого плеера YouTube
const (
	StateUnstarted State = -1
	StateEnded     State = 0
	StatePlaying   State = 1
	StatePaused    State = 2
	StateBuffering State = 3
	StateCued      State = 5
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrorCode - код ошибки движка
type ErrorCode int

// Коды ошибок встраиваемого плеера YouTube
const (
	ErrorInvalidParam     ErrorCode = 2
	ErrorHTML5            ErrorCode = 5
	ErrorVideoNotFound    ErrorCode = 100
	ErrorNotEmbeddable    ErrorCode = 101
	ErrorNotEmbeddableAlt ErrorCode = 150
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorInvalidParam:
		return "invalid video id"
	case ErrorHTML5:
		return "playback error"
	case ErrorVideoNotFound:
		return "video not found or private"
	case ErrorNotEmbeddable, ErrorNotEmbeddableAlt:
		return "video cannot be played outside YouTube"
	default:
		return fmt.Sprintf("unknown error %d", int(c))
	}
}

// Events - обработчики событий, которые движок вызывает для созданного плеера.
// Движок может вызывать их из любой горутины.
type Events struct {
	OnReady       func()
	OnStateChange func(State)
	OnError       func(ErrorCode)
}

// Handle - экземпляр плеера, созданный движком
type Handle interface {
	PlayVideo() error
	PauseVideo() error
	// SetVolume принимает громкость в диапазоне 0..100
	SetVolume(percent int) error
	// LoadVideoByID переключает существующий экземпляр на другое видео
	LoadVideoByID(videoID string) error
	// CurrentTime и Duration возвращают время в секундах
	CurrentTime() (float64, error)
	Duration() (float64, error)
	SeekTo(seconds float64, allowSeekAhead bool) error
	Destroy() error
}

// Engine - сторонний движок воспроизведения
type Engine interface {
	// Load однократно подготавливает движок и вызывает onReady, когда он
	// готов создавать плееры. onReady может быть вызван из Load синхронно.
	Load(onReady func()) error
	// Create создает плеер для видео. Events.OnReady может быть вызван
	// как до возврата из Create, так и позже.
	Create(videoID string, events Events) (Handle, error)
}
