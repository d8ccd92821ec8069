package api

import (
	"errors"
	"net/http"
)

// ErrNotFound - запрошенная запись отсутствует в каталоге
var ErrNotFound = errors.New("not found")

// Сообщения об ошибках запросов к каталогу
const (
	MsgFetchTracks        = "Failed to fetch tracks"
	MsgFetchRandomTrack   = "Failed to fetch random track"
	MsgFetchStats         = "Failed to fetch track stats"
	MsgFetchTrack         = "Failed to fetch track"
	MsgFetchChannels      = "Failed to fetch channels"
	MsgFetchChannelTracks = "Failed to fetch channel tracks"
	MsgReloadTracks       = "Failed to reload tracks"
	MsgFetchWatcherStatus = "Failed to fetch watcher status"
)

// Error - ошибка запроса к API каталога. Error() всегда возвращает
// фиксированное сообщение операции; подробности доступны в полях.
type Error struct {
	Op         string // Имя операции клиента
	Message    string // Фиксированное сообщение для пользователя
	StatusCode int    // HTTP статус, 0 при сетевой ошибке
	Detail     string // Текст ошибки из тела ответа, если есть
	Err        error  // Исходная ошибка транспорта или декодирования
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is позволяет проверять ответы 404 через errors.Is(err, ErrNotFound)
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNotFound сообщает, что запись не найдена
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
