package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/catalog"
	"github.com/hazadus/quantum-radio/internal/utils"
)

// createStatsCommand создает команду stats
func (app *Application) createStatsCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			stats, err := app.client().Stats(ctx)
			if err != nil {
				return fmt.Errorf("ошибка получения статистики: %w", err)
			}

			printStats(stats)
			fmt.Printf("   Average per track: %s views • %s likes\n",
				catalog.FormatNumber(stats.AvgViewsPerTrack.Int64()),
				catalog.FormatNumber(stats.AvgLikesPerTrack.Int64()))
			return nil
		},
	}
}

// createChannelsCommand создает команду channels с подкомандой tracks
func (app *Application) createChannelsCommand(ctx context.Context) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List catalog channels",
		Long:  `Display channels of the catalog with their video counts and total views.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.listChannels(ctx, search)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "fuzzy search in channel names")

	cmd.AddCommand(&cobra.Command{
		Use:   "tracks [channelId]",
		Short: "List tracks of a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			tracks, err := app.client().ChannelTracks(ctx, args[0])
			if err != nil {
				return fmt.Errorf("ошибка получения треков канала: %w", err)
			}
			if len(tracks) == 0 {
				fmt.Printf("📚 Channel %s has no tracks\n", args[0])
				return nil
			}

			catalog.Sort(tracks, catalog.SortViews, catalog.Desc)
			fmt.Printf("📚 %s: %d tracks\n\n", tracks[0].ChannelTitle, len(tracks))
			printTrackTable(tracks, 1)
			return nil
		},
	})

	return cmd
}

func (app *Application) listChannels(ctx context.Context, search string) error {
	channels, err := app.client().Channels(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения каналов: %w", err)
	}

	if search = strings.TrimSpace(search); search != "" {
		names := catalog.MatchChannels(lo.Map(channels, func(c api.Channel, _ int) string { return c.ChannelTitle }), search)
		byName := lo.KeyBy(channels, func(c api.Channel) string { return c.ChannelTitle })
		channels = lo.Map(names, func(name string, _ int) api.Channel { return byName[name] })
	}

	if len(channels) == 0 {
		fmt.Println("📺 No channels found")
		return nil
	}

	fmt.Printf("📺 Channels: %d\n\n", len(channels))
	fmt.Printf("%-30s %-26s %8s %10s %12s\n", "Channel", "ID", "Videos", "Views", "Subscribers")
	fmt.Println(strings.Repeat("-", 90))
	for _, c := range channels {
		fmt.Printf("%-30s %-26s %8s %10s %12s\n",
			utils.Truncate(c.ChannelTitle, 30),
			c.ChannelID,
			catalog.FormatNumber(c.VideoCount.Int64()),
			catalog.FormatNumber(c.TotalViews.Int64()),
			catalog.FormatNumber(c.Subscribers.Int64()),
		)
	}
	fmt.Println()
	fmt.Println("💡 Use 'radio channels tracks [ID]' to list tracks of a channel")
	return nil
}

// createShowCommand создает команду show
func (app *Application) createShowCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show [videoId]",
		Short: "Show track details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := app.client().Track(ctx, args[0])
			if api.IsNotFound(err) {
				return fmt.Errorf("трек %s не найден", args[0])
			}
			if err != nil {
				return fmt.Errorf("ошибка получения трека: %w", err)
			}
			printTrack(t)
			return nil
		},
	}
}

// createRandomCommand создает команду random
func (app *Application) createRandomCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Show a random track",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			t, err := app.client().RandomTrack(ctx)
			if err != nil {
				return fmt.Errorf("ошибка получения случайного трека: %w", err)
			}
			printTrack(t)
			fmt.Println()
			fmt.Printf("💡 Use 'radio play %s' to play it\n", t.VideoID)
			return nil
		},
	}
}

// createReloadCommand создает команду reload
func (app *Application) createReloadCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload catalog data on the server",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			res, err := app.client().Reload(ctx)
			if err != nil {
				return fmt.Errorf("ошибка перезагрузки каталога: %w", err)
			}
			if !res.Success {
				return fmt.Errorf("сервер не перезагрузил каталог: %s", res.Message)
			}

			fmt.Printf("🔄 %s\n", res.Message)
			fmt.Printf("   Tracks: %d → %d\n", res.OldCount, res.NewCount)
			if res.Stats != nil {
				printStats(res.Stats)
			}
			return nil
		},
	}
}

// createStatusCommand создает команду status
func (app *Application) createStatusCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the server data file watcher status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			status, err := app.client().WatcherStatus(ctx)
			if err != nil {
				return fmt.Errorf("ошибка получения статуса: %w", err)
			}

			state := "inactive"
			switch {
			case !status.Available:
				state = "unavailable"
			case status.Active:
				state = "active"
			}
			fmt.Printf("👀 File watcher: %s\n", state)
			if status.WatchedFile != "" {
				fmt.Printf("   Watched file: %s\n", status.WatchedFile)
			}
			if status.Message != "" {
				fmt.Printf("   %s\n", status.Message)
			}
			return nil
		},
	}
}
