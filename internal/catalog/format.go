package catalog

import (
	"slices"
	"strconv"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"

	"github.com/hazadus/quantum-radio/internal/api"
)

// FormatNumber сокращает большие числа: 1500000 -> "1.5M", 2500 -> "2.5K"
func FormatNumber(n int64) string {
	switch {
	case n == 0:
		return "0"
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

// Channels возвращает отсортированные уникальные названия каналов
func Channels(tracks []api.Track) []string {
	names := lo.Uniq(lo.FilterMap(tracks, func(t api.Track, _ int) (string, bool) {
		return t.ChannelTitle, t.ChannelTitle != ""
	}))
	slices.Sort(names)
	return names
}

// MatchChannels возвращает каналы, нечетко совпадающие с запросом, в исходном порядке
func MatchChannels(channels []string, query string) []string {
	if query == "" {
		return channels
	}
	return fuzzy.FindFold(query, channels)
}
