// Package api содержит HTTP клиент REST API каталога треков
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hazadus/quantum-radio/internal/log"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "quantum-radio/1.0"
	maxDetailBytes = 4096
)

// TrackQuery - параметры выборки треков. Пустые значения не передаются.
type TrackQuery struct {
	Limit   int
	Channel string
	Search  string
}

func (q TrackQuery) values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Channel != "" {
		v.Set("channel", q.Channel)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// Client - клиент API каталога
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option настраивает клиент
type Option func(*Client)

// WithHTTPClient задает собственный HTTP клиент
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout задает таймаут одного запроса
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout, Transport: c.httpClient.Transport}
		}
	}
}

// NewClient создает клиент для API с базовым адресом baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL возвращает базовый адрес API
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tracks возвращает список треков
func (c *Client) Tracks(ctx context.Context, query TrackQuery) ([]Track, error) {
	var tracks []Track
	if err := c.do(ctx, "Tracks", MsgFetchTracks, http.MethodGet, "/tracks", query.values(), &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// RandomTrack возвращает случайный трек
func (c *Client) RandomTrack(ctx context.Context) (*Track, error) {
	var track Track
	if err := c.do(ctx, "RandomTrack", MsgFetchRandomTrack, http.MethodGet, "/tracks/random", nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Stats возвращает статистику каталога
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, "Stats", MsgFetchStats, http.MethodGet, "/tracks/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Track возвращает трек по идентификатору видео
func (c *Client) Track(ctx context.Context, videoID string) (*Track, error) {
	var track Track
	path := "/tracks/" + url.PathEscape(videoID)
	if err := c.do(ctx, "Track", MsgFetchTrack, http.MethodGet, path, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Channels возвращает список каналов
func (c *Client) Channels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	if err := c.do(ctx, "Channels", MsgFetchChannels, http.MethodGet, "/channels", nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// ChannelTracks возвращает треки канала по его идентификатору
func (c *Client) ChannelTracks(ctx context.Context, channelID string) ([]Track, error) {
	var tracks []Track
	path := "/channels/" + url.PathEscape(channelID) + "/tracks"
	if err := c.do(ctx, "ChannelTracks", MsgFetchChannelTracks, http.MethodGet, path, nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Reload просит сервер перечитать файл данных
func (c *Client) Reload(ctx context.Context) (*ReloadResult, error) {
	var result ReloadResult
	if err := c.do(ctx, "Reload", MsgReloadTracks, http.MethodPost, "/tracks/reload", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WatcherStatus возвращает состояние наблюдателя за файлом данных
func (c *Client) WatcherStatus(ctx context.Context) (*WatcherStatus, error) {
	var status WatcherStatus
	if err := c.do(ctx, "WatcherStatus", MsgFetchWatcherStatus, http.MethodGet, "/tracks/watcher/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// do выполняет запрос и декодирует JSON ответ в out. Любой неуспешный
// статус превращается в *Error, частичные данные не возвращаются.
func (c *Client) do(ctx context.Context, op, message, method, path string, query url.Values, out any) error {
	fail := func(status int, detail string, err error) error {
		apiErr := &Error{Op: op, Message: message, StatusCode: status, Detail: detail, Err: err}
		log.Errorf("api %s %s: status=%d detail=%q err=%v", method, path, status, detail, err)
		return apiErr
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fail(0, "", fmt.Errorf("ошибка создания запроса: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, "", fmt.Errorf("ошибка выполнения запроса: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, readDetail(resp.Body), fmt.Errorf("ошибка HTTP: %s", resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("ошибка разбора ответа: %w", err))
	}

	log.Debugf("api %s %s: %d", method, path, resp.StatusCode)
	return nil
}

// readDetail извлекает поле detail из тела ошибки, либо само тело
func readDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxDetailBytes))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(payload.Detail); err == nil {
			return string(b)
		}
	}
	return strings.TrimSpace(string(data))
}
