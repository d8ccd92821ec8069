package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/hazadus/quantum-radio/internal/log"
	"github.com/hazadus/quantum-radio/internal/player"
)

// observed - свойства, об изменении которых mpv присылает события
var observed = []string{"pause", "eof-reached", "paused-for-cache"}

// tracker переводит свойства mpv в состояния плеера
type tracker struct {
	paused    bool
	buffering bool
	ended     bool
}

func (t *tracker) current() player.State {
	switch {
	case t.buffering && !t.paused:
		return player.StateBuffering
	case t.paused:
		return player.StatePaused
	default:
		return player.StatePlaying
	}
}

// apply обрабатывает сообщение mpv и возвращает новое состояние, если оно есть
func (t *tracker) apply(msg message) (player.State, bool) {
	switch msg.Event {
	case "property-change":
		switch msg.Name {
		case "pause":
			v, ok := msg.Data.(bool)
			if !ok {
				return 0, false
			}
			t.paused = v
			if !v {
				t.ended = false
			}
			return t.current(), true

		case "paused-for-cache":
			v, ok := msg.Data.(bool)
			if !ok {
				return 0, false
			}
			t.buffering = v
			return t.current(), true

		case "eof-reached":
			if v, _ := msg.Data.(bool); v && !t.ended {
				t.ended = true
				return player.StateEnded, true
			}
		}

	case "end-file":
		if msg.Reason == "eof" && !t.ended {
			t.ended = true
			return player.StateEnded, true
		}

	case "file-loaded":
		t.ended = false
		if t.paused {
			return player.StateCued, true
		}
	}
	return 0, false
}

// errorCode определяет код ошибки по событию завершения файла
func errorCode(msg message) (player.ErrorCode, bool) {
	if msg.Event != "end-file" || msg.Reason != "error" {
		return 0, false
	}
	switch strings.ToLower(msg.FileError) {
	case "loading failed", "unrecognized file format", "no such file or directory":
		return player.ErrorVideoNotFound, true
	default:
		return player.ErrorHTML5, true
	}
}

// listener читает события mpv через постоянное соединение
type listener struct {
	conn    net.Conn
	events  player.Events
	tracker tracker
	done    chan struct{}
}

// listen подписывается на свойства и запускает цикл чтения событий
func listen(socketPath string, events player.Events) (*listener, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения слушателя событий: %w", err)
	}

	for i, name := range observed {
		if err := writeRequest(conn, requestSeq.Add(1), []any{"observe_property", i + 1, name}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ошибка подписки на %s: %w", name, err)
		}
	}

	l := &listener{
		conn:    conn,
		events:  events,
		tracker: tracker{paused: true},
		done:    make(chan struct{}),
	}
	go l.readLoop()

	log.Debugf("mpv: слушатель событий запущен на %s", socketPath)
	return l, nil
}

func (l *listener) readLoop() {
	defer close(l.done)

	reader := bufio.NewReader(l.conn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			l.dispatch(line)
		}
		if err != nil {
			if !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.EOF) {
				log.Warnf("mpv: ошибка чтения событий: %v", err)
			}
			return
		}
	}
}

func (l *listener) dispatch(line []byte) {
	var msg message
	if err := json.Unmarshal(line, &msg); err != nil || msg.Event == "" {
		return
	}

	if code, ok := errorCode(msg); ok {
		if l.events.OnError != nil {
			l.events.OnError(code)
		}
		return
	}

	if state, ok := l.tracker.apply(msg); ok && l.events.OnStateChange != nil {
		l.events.OnStateChange(state)
	}
}

// stop закрывает соединение и ждет завершения цикла чтения
func (l *listener) stop() {
	l.conn.Close()
	<-l.done
}
