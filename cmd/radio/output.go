package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/catalog"
	"github.com/hazadus/quantum-radio/internal/track"
	"github.com/hazadus/quantum-radio/internal/utils"
)

// printTrackTable выводит таблицу треков. Номера строк начинаются с first.
func printTrackTable(tracks []api.Track, first int) {
	fmt.Printf("%-4s %-12s %-40s %-24s %8s %8s %8s\n",
		"#", "ID", "Title", "Channel", "Views", "Likes", "Length")
	fmt.Println(strings.Repeat("-", 110))

	for i, t := range tracks {
		fmt.Printf("%-4d %-12s %-40s %-24s %8s %8s %8s\n",
			first+i,
			t.VideoID,
			utils.Truncate(t.Title, 40),
			utils.Truncate(t.ChannelTitle, 24),
			catalog.FormatNumber(t.ViewCount.Int64()),
			catalog.FormatNumber(t.Likes.Int64()),
			displayDuration(t.Duration),
		)
	}
}

// printTrack выводит подробную информацию о треке
func printTrack(t *api.Track) {
	fmt.Printf("🎵 %s\n", t.Title)
	fmt.Printf("   ID:          %s\n", t.VideoID)
	fmt.Printf("   Channel:     %s\n", t.ChannelTitle)
	fmt.Printf("   Views:       %s\n", catalog.FormatNumber(t.ViewCount.Int64()))
	fmt.Printf("   Likes:       %s\n", catalog.FormatNumber(t.Likes.Int64()))
	if t.Duration != "" {
		fmt.Printf("   Length:      %s\n", t.Duration)
	}
	if t.UploadDate != "" {
		fmt.Printf("   Uploaded:    %s\n", t.UploadDate)
	}
	if t.HasHashtags() {
		fmt.Printf("   Hashtags:    %s\n", strings.Join(t.Hashtags, " "))
	}
	fmt.Printf("   URL:         %s\n", t.WatchURL())
	if t.Description != "" {
		fmt.Println()
		fmt.Println(utils.Truncate(t.Description, 300))
	}
}

// printStats выводит статистику каталога
func printStats(s *api.Stats) {
	fmt.Printf("📊 %s tracks • %s views • %s likes • %s channels\n",
		catalog.FormatNumber(s.TotalTracks.Int64()),
		catalog.FormatNumber(s.TotalViews.Int64()),
		catalog.FormatNumber(s.TotalLikes.Int64()),
		catalog.FormatNumber(s.UniqueChannels.Int64()),
	)
}

// printStaleNotice сообщает, что каталог взят из сохраненного снимка
func printStaleNotice(result track.Result) {
	if !result.Stale {
		return
	}
	fmt.Printf("⚠️  Backend unavailable (%v). Showing catalog saved %s\n\n",
		result.Err, result.SavedAt.Format(time.DateTime))
}

func displayDuration(d string) string {
	if d == "" {
		return "N/A"
	}
	return d
}
