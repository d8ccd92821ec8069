package streaming

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestOpenReadsStream(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != "identity" {
			t.Errorf("Ожидался заголовок Accept-Encoding: identity, получено %q", r.Header.Get("Accept-Encoding"))
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = io.WriteString(w, payload)
	}))
	defer server.Close()

	r, err := Open(context.Background(), server.URL+"/track.mp3", 512)
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	defer r.Close()

	if r.Size() != int64(len(payload)) {
		t.Errorf("Ожидался размер %d, получено %d", len(payload), r.Size())
	}

	buf := make([]byte, 1024)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if r.BytesRead() != 1024 {
		t.Errorf("Ожидалось 1024 прочитанных байта, получено %d", r.BytesRead())
	}

	// Прочитана четверть потока за 10 секунд
	if got := r.Estimate(10 * time.Second); got != 40*time.Second {
		t.Errorf("Ожидалась оценка 40s, получено %v", got)
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if len(rest) != len(payload)-1024 {
		t.Errorf("Ожидалось %d байт, получено %d", len(payload)-1024, len(rest))
	}
}

func TestOpenRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := Open(context.Background(), server.URL+"/missing.mp3", 0)
	if err == nil {
		t.Fatal("Ожидалась ошибка для ответа 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Ошибка должна содержать статус: %v", err)
	}
}

func TestEstimateUnknownSize(t *testing.T) {
	r := &Reader{size: -1}
	if r.Estimate(time.Minute) != 0 {
		t.Error("Без Content-Length оценка должна быть 0")
	}
}
