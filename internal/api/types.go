package api

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Count - числовой счетчик из ответа API. Принимает число, числовую строку
// или null; любое другое значение превращается в 0, не ломая весь ответ.
type Count int64

// UnmarshalJSON реализует json.Unmarshaler
func (c *Count) UnmarshalJSON(b []byte) error {
	*c = 0

	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = strings.ReplaceAll(strings.TrimSpace(unquoted), ",", "")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*c = Count(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		*c = Count(f)
	}
	return nil
}

// Int64 возвращает значение счетчика
func (c Count) Int64() int64 {
	return int64(c)
}

// Tags - список хэштегов. Помимо массива принимает строку с тегами,
// разделенными пробелами или запятыми.
type Tags []string

// UnmarshalJSON реализует json.Unmarshaler
func (t *Tags) UnmarshalJSON(b []byte) error {
	*t = nil

	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = compactTags(list)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = compactTags(strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}))
	}
	return nil
}

func compactTags(in []string) Tags {
	out := make(Tags, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Track - запись каталога
type Track struct {
	VideoID       string `json:"video_id"`
	Title         string `json:"title"`
	ChannelTitle  string `json:"channel_title"`
	Thumbnail     string `json:"thumbnail,omitempty"`
	Description   string `json:"description,omitempty"`
	URL           string `json:"url,omitempty"`
	ViewCount     Count  `json:"view_count"`
	Likes         Count  `json:"likes"`
	Duration      string `json:"duration,omitempty"`
	UploadDate    string `json:"upload_date,omitempty"`
	ChannelURL    string `json:"channel_url,omitempty"`
	ChannelID     string `json:"channel_id,omitempty"`
	Subscribers   Count  `json:"subscribers,omitempty"`
	Hashtags      Tags   `json:"hashtags,omitempty"`
	SearchQuery   string `json:"search_query,omitempty"`
	CommentsCount Count  `json:"comments_count,omitempty"`
}

// HasHashtags сообщает, есть ли у трека хотя бы один хэштег
func (t Track) HasHashtags() bool {
	return len(t.Hashtags) > 0
}

// WatchURL возвращает ссылку на видео
func (t Track) WatchURL() string {
	if t.URL != "" {
		return t.URL
	}
	return "https://www.youtube.com/watch?v=" + t.VideoID
}

// Channel - сводка по каналу
type Channel struct {
	ChannelTitle string `json:"channel_title"`
	ChannelID    string `json:"channel_id"`
	ChannelURL   string `json:"channel_url,omitempty"`
	Subscribers  Count  `json:"subscribers"`
	VideoCount   Count  `json:"video_count"`
	TotalViews   Count  `json:"total_views"`
}

// Stats - агрегированная статистика каталога
type Stats struct {
	TotalTracks      Count `json:"total_tracks"`
	TotalViews       Count `json:"total_views"`
	TotalLikes       Count `json:"total_likes"`
	UniqueChannels   Count `json:"unique_channels"`
	AvgViewsPerTrack Count `json:"avg_views_per_track"`
	AvgLikesPerTrack Count `json:"avg_likes_per_track"`
}

// ReloadResult - ответ на принудительную перезагрузку данных на сервере
type ReloadResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	OldCount int    `json:"old_count"`
	NewCount int    `json:"new_count"`
	Stats    *Stats `json:"stats,omitempty"`
}

// WatcherStatus - состояние наблюдателя за файлом данных на сервере
type WatcherStatus struct {
	Available   bool   `json:"file_watcher_available"`
	Active      bool   `json:"file_watcher_active"`
	WatchedFile string `json:"watched_file"`
	Message     string `json:"message"`
}
