package catalog

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/hazadus/quantum-radio/internal/api"
)

// DefaultPageSize - размер страницы по умолчанию
const DefaultPageSize = 24

// epoch - дата для треков без даты загрузки или с нераспознанной датой
var epoch = time.Unix(0, 0).UTC()

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
}

// Page - одна страница отфильтрованного каталога
type Page struct {
	Tracks     []api.Track
	Page       int // Номер страницы, начиная с 1
	TotalPages int
	Total      int // Число треков после фильтрации
	Size       int
}

// Apply отбирает и сортирует треки по фильтру. Исходный срез не изменяется.
// Порядок шагов: поиск, канал, хэштеги, минимум просмотров, сортировка.
func Apply(tracks []api.Track, f Filter) []api.Track {
	result := slices.Clone(tracks)

	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		result = lo.Filter(result, func(t api.Track, _ int) bool {
			return matchesSearch(t, search)
		})
	}

	if f.Channel != "" {
		result = lo.Filter(result, func(t api.Track, _ int) bool {
			return t.ChannelTitle == f.Channel
		})
	}

	if f.HasHashtags {
		result = lo.Filter(result, func(t api.Track, _ int) bool {
			return t.HasHashtags()
		})
	}

	if minViews, ok := f.MinViews.Get(); ok {
		result = lo.Filter(result, func(t api.Track, _ int) bool {
			return t.ViewCount.Int64() >= minViews
		})
	}

	Sort(result, f.SortBy, f.Order)
	return result
}

// Sort сортирует треки на месте. Равные по ключу треки упорядочиваются по
// идентификатору видео, затем сохраняют исходный порядок.
func Sort(tracks []api.Track, key SortKey, order Order) {
	compareKey := keyComparator(key)
	slices.SortStableFunc(tracks, func(a, b api.Track) int {
		c := compareKey(a, b)
		if order == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.VideoID, b.VideoID)
	})
}

func keyComparator(key SortKey) func(a, b api.Track) int {
	switch key {
	case SortLikes:
		return func(a, b api.Track) int {
			return cmp.Compare(a.Likes, b.Likes)
		}
	case SortDate:
		return func(a, b api.Track) int {
			return ParseDate(a.UploadDate).Compare(ParseDate(b.UploadDate))
		}
	case SortTitle:
		return func(a, b api.Track) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	default:
		return func(a, b api.Track) int {
			return cmp.Compare(a.ViewCount, b.ViewCount)
		}
	}
}

// ParseDate разбирает дату загрузки трека. Пустая или нераспознанная дата
// превращается в начало эпохи Unix.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return epoch
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return epoch
}

func matchesSearch(t api.Track, search string) bool {
	if strings.Contains(strings.ToLower(t.Title), search) ||
		strings.Contains(strings.ToLower(t.ChannelTitle), search) ||
		strings.Contains(strings.ToLower(t.Description), search) {
		return true
	}
	return lo.SomeBy(t.Hashtags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), search)
	})
}

// Paginate возвращает страницу page размером size. Номер страницы
// ограничивается диапазоном [1, TotalPages].
func Paginate(tracks []api.Track, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}

	total := len(tracks)
	totalPages := (total + size - 1) / size
	page = max(1, min(page, totalPages))

	start := min((page-1)*size, total)
	end := min(start+size, total)

	return Page{
		Tracks:     tracks[start:end:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Size:       size,
	}
}
