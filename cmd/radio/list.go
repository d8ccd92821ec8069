package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/catalog"
)

// listOptions - флаги команды list
type listOptions struct {
	search   string
	channel  string
	sortBy   string
	order    string
	hashtags bool
	minViews int64
	page     int
	limit    int
	shuffle  bool
}

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand(ctx context.Context) *cobra.Command {
	opts := listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog tracks",
		Long:  `Display one page of the catalog, filtered and sorted by the given flags.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case !cmd.Flags().Changed("min-views"):
				opts.minViews = -1
			case opts.minViews < 0:
				return fmt.Errorf("--min-views не может быть отрицательным: %d", opts.minViews)
			}
			return app.listTracks(ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.search, "search", "s", "", "search in titles, channels, descriptions and hashtags")
	flags.StringVarP(&opts.channel, "channel", "c", "", "show only tracks of this channel")
	flags.StringVar(&opts.sortBy, "sort", string(catalog.SortViews), "sort key: views, likes, date or title")
	flags.StringVar(&opts.order, "order", string(catalog.Desc), "sort order: asc or desc")
	flags.BoolVar(&opts.hashtags, "hashtags", false, "show only tracks with hashtags")
	flags.Int64Var(&opts.minViews, "min-views", 0, "show only tracks with at least this many views")
	flags.IntVarP(&opts.page, "page", "p", 1, "page number")
	flags.IntVarP(&opts.limit, "limit", "n", 0, "tracks per page (default from config)")
	flags.BoolVar(&opts.shuffle, "shuffle", false, "shuffle the filtered tracks")

	return cmd
}

// filter собирает фильтр каталога из флагов. Название канала сверяется
// с каналами каталога без учета регистра.
func (opts listOptions) filter(tracks []api.Track) (catalog.Filter, error) {
	sortBy, err := catalog.ParseSortKey(opts.sortBy)
	if err != nil {
		return catalog.Filter{}, err
	}
	order, err := catalog.ParseOrder(opts.order)
	if err != nil {
		return catalog.Filter{}, err
	}

	f := catalog.Filter{
		Search:      strings.TrimSpace(opts.search),
		SortBy:      sortBy,
		Order:       order,
		HasHashtags: opts.hashtags,
	}

	if opts.minViews >= 0 {
		f.MinViews = mo.Some(opts.minViews)
	}

	if name := strings.TrimSpace(opts.channel); name != "" {
		channels := catalog.Channels(tracks)
		channel, ok := lo.Find(channels, func(c string) bool { return strings.EqualFold(c, name) })
		if !ok {
			if similar := catalog.MatchChannels(channels, name); len(similar) > 0 {
				return f, fmt.Errorf("канал %q не найден, похожие: %s", name, strings.Join(similar[:min(len(similar), 3)], ", "))
			}
			return f, fmt.Errorf("канал %q не найден", name)
		}
		f.Channel = channel
	}

	return f, nil
}

func (app *Application) listTracks(ctx context.Context, opts listOptions) error {
	result, err := app.catalog().Load(ctx)
	if err != nil {
		return fmt.Errorf("ошибка загрузки каталога: %w", err)
	}
	printStaleNotice(result)

	if len(result.Tracks) == 0 {
		fmt.Println("📚 No tracks available")
		return nil
	}

	f, err := opts.filter(result.Tracks)
	if err != nil {
		return err
	}

	filtered := catalog.Apply(result.Tracks, f)
	if opts.shuffle {
		filtered = lo.Shuffle(filtered)
	}

	if len(filtered) == 0 {
		fmt.Println("🔍 No tracks found matching your filters")
		fmt.Println("💡 Run 'radio list' without --search, --channel, --hashtags and --min-views to clear filters")
		return nil
	}

	size := opts.limit
	if size <= 0 {
		size = app.Config.PageSize
	}
	page := catalog.Paginate(filtered, opts.page, size)

	if result.Stats != nil {
		printStats(result.Stats)
		fmt.Println()
	}

	printTrackTable(page.Tracks, (page.Page-1)*page.Size+1)

	fmt.Println()
	fmt.Printf("Page %d of %d • %s tracks", page.Page, page.TotalPages, catalog.FormatNumber(int64(page.Total)))
	if n := f.Active(); n > 0 {
		fmt.Printf(" • %d active filters", n)
	}
	fmt.Println()
	fmt.Println("💡 Use 'radio play [ID]' to play a track")
	return nil
}
