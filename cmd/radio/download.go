package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/kkdai/youtube/v2"
	"github.com/spf13/cobra"

	"github.com/hazadus/quantum-radio/internal/metadata"
	"github.com/hazadus/quantum-radio/internal/mirror"
	"github.com/hazadus/quantum-radio/internal/s3"
	"github.com/hazadus/quantum-radio/internal/utils"
)

// createDownloadCommand создает команду download с привязкой к экземпляру приложения
func (app *Application) createDownloadCommand(ctx context.Context) *cobra.Command {
	var upload bool

	cmd := &cobra.Command{
		Use:   "download [videoId or YouTube URL]",
		Short: "Download the audio of a track",
		Long: `Download the best audio format of a track to the configured download directory.
With --upload the file is also mirrored to the configured S3 bucket, where the stream engine can play it from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			videoID, err := mirror.ParseVideoID(args[0])
			if err != nil {
				return err
			}

			service, err := app.newMirror(upload)
			if err != nil {
				return err
			}

			if upload {
				return app.mirrorTrack(ctx, service, videoID)
			}
			return app.downloadTrack(ctx, service, videoID)
		},
	}
	cmd.Flags().BoolVarP(&upload, "upload", "u", false, "mirror the audio to S3 after download")

	return cmd
}

// newMirror создает сервис зеркалирования. Хранилище S3 подключается
// только для загрузки.
func (app *Application) newMirror(upload bool) (*mirror.Service, error) {
	opts := []mirror.Option{mirror.WithCatalog(app.catalog())}

	if upload {
		if !app.Config.S3Enabled() {
			return nil, errors.New("для загрузки задайте aws_bucket_name и aws_region в конфигурации")
		}
		uploader, err := s3.NewUploader(&s3.Config{
			Region:     app.Config.AwsRegion,
			AccessKey:  app.Config.AwsAccessKey,
			SecretKey:  app.Config.AwsSecretKey,
			Endpoint:   app.Config.AwsEndpoint,
			BucketName: app.Config.AwsBucketName,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, mirror.WithStorage(uploader))
	}

	return mirror.NewService(&youtube.Client{}, app.Config.DownloadDir, opts...), nil
}

func (app *Application) downloadTrack(ctx context.Context, service *mirror.Service, videoID string) error {
	fmt.Printf("⬇️  Downloading audio for %s\n", videoID)

	dl, err := service.Download(ctx, videoID, printTransfer)
	fmt.Println()
	if err != nil {
		return err
	}

	if dl.Cached {
		fmt.Printf("✅ Already downloaded: %s\n", dl.Path)
	} else {
		fmt.Printf("✅ Saved %s - %s\n", dl.Title, dl.Author)
		fmt.Printf("   File: %s\n", dl.Path)
	}

	if info, err := metadata.Stat(dl.Path); err == nil {
		fmt.Printf("   Size: %s", utils.FormatFileSize(info.Size))
		if info.Duration > 0 {
			fmt.Printf(" • Length: %s", utils.FormatDuration(info.Duration))
		}
		fmt.Println()
	}
	return nil
}

func (app *Application) mirrorTrack(ctx context.Context, service *mirror.Service, videoID string) error {
	fmt.Printf("☁️  Mirroring %s to bucket %s\n", videoID, app.Config.AwsBucketName)

	result, err := service.Mirror(ctx, videoID, printTransfer)
	fmt.Println()
	if err != nil {
		return err
	}

	if result.Skipped {
		fmt.Printf("✅ Already mirrored: %s\n", result.URL)
		return nil
	}

	fmt.Printf("✅ Uploaded %s - %s\n", result.Tags.Artist, result.Tags.Title)
	fmt.Printf("   URL: %s\n", result.URL)
	return nil
}

// printTransfer перерисовывает строку прогресса скачивания или загрузки
func printTransfer(stage mirror.Stage, done, total int64) {
	if total > 0 {
		fmt.Printf("\r   %s: %s / %s (%.0f%%)   ", stage,
			utils.FormatFileSize(done), utils.FormatFileSize(total),
			float64(done)/float64(total)*100)
		return
	}
	fmt.Printf("\r   %s: %s   ", stage, utils.FormatFileSize(done))
}
