package mirror

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazadus/quantum-radio/internal/api"
	"github.com/hazadus/quantum-radio/internal/filesystem"
	"github.com/hazadus/quantum-radio/internal/player"
	"github.com/hazadus/quantum-radio/internal/s3"
)

const videoID = "dQw4w9WgXcQ"

type fakeYouTube struct {
	formats   youtube.FormatList
	body      string
	streamErr error
	videos    int
	format    *youtube.Format
}

func (f *fakeYouTube) GetVideoContext(_ context.Context, id string) (*youtube.Video, error) {
	f.videos++
	return &youtube.Video{ID: id, Title: "Quantum Dreams", Author: "Synth Lab", Formats: f.formats}, nil
}

func (f *fakeYouTube) GetStreamContext(_ context.Context, _ *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	f.format = format
	if f.streamErr != nil {
		return nil, 0, f.streamErr
	}
	return io.NopCloser(strings.NewReader(f.body)), int64(len(f.body)), nil
}

type fakeStorage struct {
	objects map[string]string
	meta    map[string]s3.Object
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]string{}, meta: map[string]s3.Object{}}
}

func (f *fakeStorage) UploadFile(_ context.Context, r io.Reader, key string, object s3.Object) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.objects[key] = string(data)
	f.meta[key] = object
	return f.URL(key), nil
}

func (f *fakeStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStorage) URL(key string) string {
	return "https://bucket.example.com/" + key
}

type fakeCatalog map[string]api.Track

func (c fakeCatalog) Track(_ context.Context, id string) (*api.Track, error) {
	t, ok := c[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	return &t, nil
}

func audioFormats() youtube.FormatList {
	return youtube.FormatList{
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Bitrate: 500000, AudioChannels: 2},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000, AudioChannels: 2},
		{ItagNo: 139, MimeType: `audio/mp4; codecs="mp4a.40.5"`, Bitrate: 48000, AudioChannels: 2},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128000, AudioChannels: 2},
	}
}

func useMemFs(t *testing.T) {
	t.Helper()
	filesystem.SetMemMapFs()
	t.Cleanup(filesystem.SetOsFs)
}

func TestBestAudioFormat(t *testing.T) {
	assert.Equal(t, 140, bestAudioFormat(audioFormats()).ItagNo, "MP4 с наибольшим битрейтом")

	webm := youtube.FormatList{
		{ItagNo: 250, MimeType: `audio/webm; codecs="opus"`, Bitrate: 64000, AudioChannels: 2},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000, AudioChannels: 2},
	}
	assert.Equal(t, 251, bestAudioFormat(webm).ItagNo)

	videoOnly := youtube.FormatList{
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`},
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, AudioChannels: 2},
	}
	assert.Equal(t, 18, bestAudioFormat(videoOnly).ItagNo, "видео со звуком, если нет аудио")

	assert.Nil(t, bestAudioFormat(youtube.FormatList{{ItagNo: 137, MimeType: "video/mp4"}}))
}

func TestParseVideoID(t *testing.T) {
	for _, input := range []string{
		videoID,
		"https://www.youtube.com/watch?v=" + videoID,
		"https://youtu.be/" + videoID,
		" https://www.youtube.com/embed/" + videoID + " ",
	} {
		id, err := ParseVideoID(input)
		require.NoError(t, err, input)
		assert.Equal(t, videoID, id, input)
	}

	_, err := ParseVideoID("not a video")
	assert.Error(t, err)
}

func TestDownload(t *testing.T) {
	useMemFs(t)
	yt := &fakeYouTube{formats: audioFormats(), body: "m4a audio payload"}
	s := NewService(yt, "/downloads")

	var last [2]int64
	dl, err := s.Download(context.Background(), videoID, func(stage Stage, done, total int64) {
		assert.Equal(t, StageDownload, stage)
		last = [2]int64{done, total}
	})
	require.NoError(t, err)

	assert.Equal(t, "/downloads/"+videoID+".mp3", dl.Path)
	assert.Equal(t, "Quantum Dreams", dl.Title)
	assert.Equal(t, "Synth Lab", dl.Author)
	assert.Equal(t, "audio/mp4", dl.MimeType)
	assert.Equal(t, int64(17), dl.Size)
	assert.False(t, dl.Cached)
	assert.Equal(t, [2]int64{17, 17}, last)
	assert.Equal(t, 140, yt.format.ItagNo)

	content, err := filesystem.API().ReadFile(dl.Path)
	require.NoError(t, err)
	assert.Equal(t, "m4a audio payload", string(content))

	partExists, _ := filesystem.API().Exists(dl.Path + ".part")
	assert.False(t, partExists)

	// Повторная загрузка берет файл с диска
	again, err := s.Download(context.Background(), videoID, nil)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, 1, yt.videos)
}

func TestDownloadErrors(t *testing.T) {
	useMemFs(t)

	_, err := NewService(&fakeYouTube{}, "/downloads").Download(context.Background(), "bad id", nil)
	assert.ErrorIs(t, err, player.ErrInvalidVideoID)

	_, err = NewService(&fakeYouTube{formats: youtube.FormatList{{MimeType: "video/mp4"}}}, "/downloads").
		Download(context.Background(), videoID, nil)
	assert.ErrorIs(t, err, ErrNoAudio)

	streamErr := errors.New("403 forbidden")
	_, err = NewService(&fakeYouTube{formats: audioFormats(), streamErr: streamErr}, "/downloads").
		Download(context.Background(), videoID, nil)
	assert.ErrorIs(t, err, streamErr)

	exists, _ := filesystem.API().Exists("/downloads/" + videoID + ".mp3")
	assert.False(t, exists, "при ошибке файл не создается")
}

func TestMirror(t *testing.T) {
	useMemFs(t)
	storage := newFakeStorage()
	catalog := fakeCatalog{videoID: {VideoID: videoID, Title: "Catalog Title", ChannelTitle: "Catalog Channel"}}
	s := NewService(&fakeYouTube{formats: audioFormats(), body: "audio"}, "/downloads",
		WithStorage(storage), WithCatalog(catalog))

	stages := map[Stage]int64{}
	result, err := s.Mirror(context.Background(), videoID, func(stage Stage, done, _ int64) {
		stages[stage] = done
	})
	require.NoError(t, err)

	key := videoID + ".mp3"
	assert.Equal(t, key, result.Key)
	assert.Equal(t, "https://bucket.example.com/"+key, result.URL)
	assert.False(t, result.Skipped)
	assert.Equal(t, "audio", storage.objects[key])
	assert.Equal(t, int64(5), stages[StageDownload])
	assert.Equal(t, int64(5), stages[StageUpload])

	object := storage.meta[key]
	assert.Equal(t, "audio/mp4", object.ContentType)
	assert.Equal(t, "Catalog Title", object.Metadata["title"], "без тегов в файле берутся поля каталога")
	assert.Equal(t, "Catalog Channel", object.Metadata["channel"])
	assert.Equal(t, videoID, object.Metadata["video-id"])

	again, err := s.Mirror(context.Background(), videoID, nil)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}

func TestMirrorFallsBackToVideoInfo(t *testing.T) {
	useMemFs(t)
	storage := newFakeStorage()
	s := NewService(&fakeYouTube{formats: audioFormats(), body: "audio"}, "/downloads",
		WithStorage(storage), WithCatalog(fakeCatalog{}))

	result, err := s.Mirror(context.Background(), videoID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Quantum Dreams", result.Tags.Title)
	assert.Equal(t, "Synth Lab", result.Tags.Artist)
}

func TestMirrorWithoutStorage(t *testing.T) {
	_, err := NewService(&fakeYouTube{}, "/downloads").Mirror(context.Background(), videoID, nil)
	assert.ErrorIs(t, err, ErrNoStorage)
}
