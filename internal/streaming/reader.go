// Package streaming содержит буферизованное HTTP-чтение аудиопотока
package streaming

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultBufferSize - размер буфера чтения по умолчанию
const DefaultBufferSize = 256 * 1024

// streamClient не ограничивает общее время запроса: поток читается столько,
// сколько играет трек. Ограничены только установка соединения и ожидание заголовков.
var streamClient = &http.Client{
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       5 * time.Minute,
		MaxIdleConnsPerHost:   2,
	},
}

// Reader читает аудиопоток по HTTP через буфер и считает прочитанные байты
type Reader struct {
	body   *http.Response
	reader *bufio.Reader
	size   int64
	read   atomic.Int64
}

// Open открывает поток по url. Ответы кроме 200 и 206 считаются ошибкой.
func Open(ctx context.Context, url string, bufferSize int) (*Reader, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	// Без сжатия, иначе Content-Length не совпадает с размером файла
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("User-Agent", "quantum-radio/1.0")

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}

	return &Reader{
		body:   resp,
		reader: bufio.NewReaderSize(resp.Body, bufferSize),
		size:   resp.ContentLength,
	}, nil
}

// Read реализует io.Reader
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read.Add(int64(n))
	return n, err
}

// Close закрывает соединение
func (r *Reader) Close() error {
	return r.body.Body.Close()
}

// Size возвращает размер потока из Content-Length или -1, если он неизвестен
func (r *Reader) Size() int64 {
	return r.size
}

// BytesRead возвращает число байт, отданных читателю
func (r *Reader) BytesRead() int64 {
	return r.read.Load()
}

// Estimate оценивает полную длительность потока по доле уже прочитанных байт
func (r *Reader) Estimate(elapsed time.Duration) time.Duration {
	read := r.BytesRead()
	if r.size <= 0 || read <= 0 || elapsed <= 0 {
		return 0
	}
	return time.Duration(float64(elapsed) * float64(r.size) / float64(read))
}
