package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = time.Second
)

// errPropertyUnavailable - свойство еще не доступно (файл не загружен)
var errPropertyUnavailable = errors.New("property unavailable")

// request - команда JSON-IPC
type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// message - строка, полученная от mpv: ответ на команду или событие
type message struct {
	Data      any    `json:"data"`
	Error     string `json:"error"`
	RequestID int64  `json:"request_id"`
	Event     string `json:"event"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
}

var requestSeq atomic.Int64

// client отправляет команды в сокет mpv, открывая соединение на каждую команду
type client struct {
	socketPath string
	mu         sync.Mutex
}

// command отправляет команду с повторными попытками
func (c *client) command(args ...any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}

		data, err := send(c.socketPath, args)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, errPropertyUnavailable) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("команда %v не выполнена после %d попыток: %w", args[0], maxRetries, lastErr)
}

// send выполняет одну попытку команды. mpv рассылает события всем
// подключенным клиентам, поэтому ответ ищется по request_id.
func send(socketPath string, args []any) (any, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения: %w", err)
	}
	defer conn.Close()

	id := requestSeq.Add(1)
	if err := writeRequest(conn, id, args); err != nil {
		return nil, err
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, fmt.Errorf("ошибка установки таймаута: %w", err)
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
		}

		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		if msg.Event != "" || msg.RequestID != id {
			continue
		}
		return msg.Data, responseError(msg.Error)
	}
}

func writeRequest(conn net.Conn, id int64, args []any) error {
	payload, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return fmt.Errorf("ошибка сериализации команды: %w", err)
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("ошибка записи команды: %w", err)
	}
	return nil
}

func responseError(e string) error {
	switch e {
	case "", "success":
		return nil
	case errPropertyUnavailable.Error():
		return errPropertyUnavailable
	default:
		return fmt.Errorf("ошибка mpv: %s", e)
	}
}

// waitForSocket ждет, пока сокет mpv начнет принимать соединения
func waitForSocket(socketPath string, exited <-chan struct{}, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		time.Sleep(delay)

		select {
		case <-exited:
			return fmt.Errorf("mpv завершился до готовности сокета")
		default:
		}

		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("сокет %s не готов после %d попыток", socketPath, attempts)
}
