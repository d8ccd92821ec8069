package playback

import (
	"sync/atomic"

	"github.com/hazadus/quantum-radio/internal/log"
)

// Player - команды плеера, которыми управляет состояние
type Player interface {
	LoadVideo(videoID string) error
	OnPlayerReady(cb func())
	OnStateChange(cb func(playing bool))
	PlayVideo()
	PauseVideo()
	SetVolume(v float64)
}

// Bind связывает состояние с плеером: выбор трека загружает видео и после
// готовности плеера применяет громкость и воспроизведение, флаг воспроизведения
// и громкость передаются плееру, события плеера возвращаются в состояние.
// Возвращает функцию отвязки.
func Bind(state *State, p Player) (unbind func()) {
	var active atomic.Bool
	active.Store(true)

	// Применяет актуальное состояние, когда плеер готов
	apply := func() {
		if !active.Load() {
			return
		}
		snap := state.Snapshot()
		p.SetVolume(snap.Volume)
		if snap.Playing {
			p.PlayVideo()
		} else {
			p.PauseVideo()
		}
	}

	unsubscribe := state.Subscribe(func(c Change) {
		if !active.Load() {
			return
		}

		switch {
		case c.TrackChanged():
			videoID, ok := c.Next.Track.Get()
			if !ok {
				p.PauseVideo()
				return
			}
			if err := p.LoadVideo(videoID); err != nil {
				log.Warnf("playback: трек %q не загружен: %v", videoID, err)
				state.SyncPlaying(false)
				return
			}
			p.OnPlayerReady(apply)
			return

		case c.Prev.Playing != c.Next.Playing && !c.FromPlayer:
			if c.Next.Playing {
				p.PlayVideo()
			} else {
				p.PauseVideo()
			}
		}

		if c.Prev.Volume != c.Next.Volume {
			p.OnPlayerReady(func() {
				if active.Load() {
					p.SetVolume(state.Snapshot().Volume)
				}
			})
		}
	})

	p.OnStateChange(func(playing bool) {
		if active.Load() {
			state.SyncPlaying(playing)
		}
	})

	return func() {
		active.Store(false)
		unsubscribe()
	}
}
