package player_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/hazadus/quantum-radio/internal/player"
	"github.com/hazadus/quantum-radio/internal/player/playertest"
)

const (
	videoA = "dQw4w9WgXcQ"
	videoB = "9bZkp7q5f_Q"
	videoC = "kJQP7kiw5Fk"
)

// newReadyPlayer возвращает плеер, готовый сразу после LoadVideo
func newReadyPlayer(t *testing.T) (*player.Player, *playertest.Engine, *playertest.Handle) {
	t.Helper()
	eng := &playertest.Engine{APIReadyOnLoad: true, ReadyOnCreate: true}
	p := player.New(eng)
	if err := p.LoadVideo(videoA); err != nil {
		t.Fatalf("Неожиданная ошибка LoadVideo: %v", err)
	}
	if p.Phase() != player.PhaseReady {
		t.Fatalf("Ожидался этап ready, получен %s", p.Phase())
	}
	return p, eng, eng.Last()
}

func TestIsValidVideoID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{videoA, true},
		{"abc-DEF_123", true},
		{"bad id!", false},
		{"", false},
		{"dQw4w9WgXc", false},
		{"dQw4w9WgXcQQ", false},
		{"dQw4w9WgXc!", false},
	}

	for _, test := range tests {
		if got := player.IsValidVideoID(test.id); got != test.valid {
			t.Errorf("IsValidVideoID(%q) = %v; ожидалось %v", test.id, got, test.valid)
		}
	}
}

func TestLoadVideoRejectsInvalidID(t *testing.T) {
	eng := &playertest.Engine{APIReadyOnLoad: true, ReadyOnCreate: true}
	p := player.New(eng)

	err := p.LoadVideo("bad id!")
	if !errors.Is(err, player.ErrInvalidVideoID) {
		t.Fatalf("Ожидалась ErrInvalidVideoID, получено: %v", err)
	}
	if eng.Loads() != 0 {
		t.Error("Движок не должен загружаться для неверного идентификатора")
	}
	if p.Phase() != player.PhaseUninitialized {
		t.Errorf("Этап не должен меняться, получен %s", p.Phase())
	}

	if err := p.LoadVideo(videoA); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if err := p.LoadVideo("bad id!"); !errors.Is(err, player.ErrInvalidVideoID) {
		t.Fatalf("Ожидалась ErrInvalidVideoID, получено: %v", err)
	}
	if p.BoundVideo() != videoA {
		t.Errorf("Привязанное видео не должно меняться, получено %q", p.BoundVideo())
	}
	if loaded := eng.Last().Snapshot().Loaded; !slices.Equal(loaded, []string{videoA}) {
		t.Errorf("Плеер не должен получать неверный идентификатор: %v", loaded)
	}
}

func TestDeferredLifecycle(t *testing.T) {
	eng := &playertest.Engine{}
	p := player.New(eng)

	if p.Phase() != player.PhaseUninitialized {
		t.Fatalf("Ожидался этап uninitialized, получен %s", p.Phase())
	}

	_ = p.LoadVideo(videoA)
	_ = p.LoadVideo(videoB)
	if eng.Loads() != 1 {
		t.Fatalf("Движок должен загружаться один раз, загружен %d", eng.Loads())
	}
	if p.Phase() != player.PhaseUninitialized {
		t.Fatalf("До готовности движка этап не меняется, получен %s", p.Phase())
	}

	var order []int
	p.OnPlayerReady(func() { order = append(order, 1); panic("callback failure") })
	p.OnPlayerReady(func() { order = append(order, 2) })

	eng.FireAPIReady()
	if p.Phase() != player.PhaseNotReady {
		t.Fatalf("Ожидался этап not-ready, получен %s", p.Phase())
	}
	handles := eng.Handles()
	if len(handles) != 1 || handles[0].VideoID != videoB {
		t.Fatalf("Плеер должен создаваться для последнего запрошенного видео: %+v", handles)
	}
	if len(order) != 0 {
		t.Fatal("Обработчики не должны вызываться до готовности плеера")
	}

	handles[0].FireReady()
	if p.Phase() != player.PhaseReady {
		t.Fatalf("Ожидался этап ready, получен %s", p.Phase())
	}
	if !slices.Equal(order, []int{1, 2}) {
		t.Fatalf("Обработчики должны выполниться по порядку несмотря на панику: %v", order)
	}

	// Повторное событие готовности не вызывает обработчики снова
	handles[0].FireReady()
	if len(order) != 2 {
		t.Errorf("Обработчики должны вызываться ровно один раз: %v", order)
	}
	if p.BoundVideo() != videoB {
		t.Errorf("Ожидалось привязанное видео %s, получено %s", videoB, p.BoundVideo())
	}
}

func TestReadyCallbackAfterReadyRunsOnce(t *testing.T) {
	p, _, _ := newReadyPlayer(t)

	calls := 0
	p.OnPlayerReady(func() { calls++ })
	if calls != 1 {
		t.Fatalf("Обработчик должен выполниться сразу, вызовов: %d", calls)
	}

	_ = p.LoadVideo(videoB)
	if calls != 1 {
		t.Errorf("Обработчик не должен вызываться повторно, вызовов: %d", calls)
	}
}

func TestReadyCallbackRegisteredDuringFlush(t *testing.T) {
	eng := &playertest.Engine{APIReadyOnLoad: true}
	p := player.New(eng)
	_ = p.LoadVideo(videoA)

	var order []string
	p.OnPlayerReady(func() {
		order = append(order, "first")
		p.OnPlayerReady(func() { order = append(order, "nested") })
	})
	p.OnPlayerReady(func() { order = append(order, "second") })

	eng.Last().FireReady()
	if !slices.Equal(order, []string{"first", "second", "nested"}) {
		t.Errorf("Неверный порядок обработчиков: %v", order)
	}
}

func TestEarlyReadyDuringCreate(t *testing.T) {
	eng := &playertest.Engine{APIReadyOnLoad: true, ReadyOnCreate: true}
	p := player.New(eng)

	called := false
	p.OnPlayerReady(func() { called = true })
	_ = p.LoadVideo(videoA)

	if p.Phase() != player.PhaseReady {
		t.Fatalf("Ожидался этап ready, получен %s", p.Phase())
	}
	if !called {
		t.Error("Обработчик готовности должен выполниться")
	}
}

func TestReadyFromAnotherGoroutine(t *testing.T) {
	eng := &playertest.Engine{APIReadyOnLoad: true, ReadyAfterCreate: true}
	p := player.New(eng)

	done := make(chan struct{})
	p.OnPlayerReady(func() { close(done) })
	_ = p.LoadVideo(videoA)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Обработчик готовности не был вызван")
	}
	if p.Phase() != player.PhaseReady {
		t.Errorf("Ожидался этап ready, получен %s", p.Phase())
	}
}

func TestRedirectWhileNotReady(t *testing.T) {
	eng := &playertest.Engine{APIReadyOnLoad: true}
	p := player.New(eng)

	_ = p.LoadVideo(videoA)
	_ = p.LoadVideo(videoB)

	h := eng.Last()
	h.FireReady()

	if got := h.Snapshot().Loaded; !slices.Equal(got, []string{videoA, videoB}) {
		t.Errorf("Плеер должен переключиться на последнее видео: %v", got)
	}
	if p.BoundVideo() != videoB {
		t.Errorf("Ожидалось привязанное видео %s, получено %s", videoB, p.BoundVideo())
	}
	if len(eng.Handles()) != 1 {
		t.Errorf("Должен существовать один плеер, создано: %d", len(eng.Handles()))
	}
}

func TestLoadVideoReusesReadyPlayer(t *testing.T) {
	p, eng, h := newReadyPlayer(t)

	_ = p.LoadVideo(videoB)
	_ = p.LoadVideo(videoC)

	if len(eng.Handles()) != 1 {
		t.Fatalf("Готовый плеер должен переиспользоваться, создано: %d", len(eng.Handles()))
	}
	if got := h.Snapshot().Loaded; !slices.Equal(got, []string{videoA, videoB, videoC}) {
		t.Errorf("Неверная последовательность загрузок: %v", got)
	}
	if p.BoundVideo() != videoC {
		t.Errorf("Ожидалось привязанное видео %s, получено %s", videoC, p.BoundVideo())
	}
}

func TestCommandsAreNoopsWhenNotReady(t *testing.T) {
	eng := &playertest.Engine{APIReadyOnLoad: true}
	p := player.New(eng)

	p.PlayVideo()
	p.PauseVideo()
	p.SetVolume(0.5)
	p.SeekTo(10)
	if p.CurrentTime() != 0 || p.Duration() != 0 {
		t.Error("Без плеера время должно быть 0")
	}

	_ = p.LoadVideo(videoA)
	p.PlayVideo()
	p.SetVolume(0.5)

	calls := eng.Last().Snapshot().Calls
	if len(calls) != 0 {
		t.Errorf("Неготовый плеер не должен получать команды: %v", calls)
	}
}

func TestVolumeMapping(t *testing.T) {
	tests := []struct {
		volume   float64
		expected int
	}{
		{0, 0},
		{0.5, 50},
		{0.333, 33},
		{0.996, 100},
		{1, 100},
		{1.5, 100},
		{-0.2, 0},
	}

	p, _, h := newReadyPlayer(t)
	for _, test := range tests {
		if got := player.VolumeLevel(test.volume); got != test.expected {
			t.Errorf("VolumeLevel(%v) = %d; ожидалось %d", test.volume, got, test.expected)
		}
		p.SetVolume(test.volume)
		if got := h.Snapshot().Volume; got != test.expected {
			t.Errorf("SetVolume(%v) передал %d; ожидалось %d", test.volume, got, test.expected)
		}
	}
}

func TestPlayPauseSeek(t *testing.T) {
	p, _, h := newReadyPlayer(t)
	h.Set(func(h *playertest.Handle) {
		h.Length = 200
		h.Time = 12.5
	})

	p.PlayVideo()
	if !h.Snapshot().Playing {
		t.Error("Плеер должен воспроизводить после PlayVideo")
	}
	p.PauseVideo()
	if h.Snapshot().Playing {
		t.Error("Плеер должен стоять на паузе после PauseVideo")
	}

	if got := p.CurrentTime(); got != 12.5 {
		t.Errorf("Ожидалась позиция 12.5, получено %v", got)
	}
	if got := p.Duration(); got != 200 {
		t.Errorf("Ожидалась длительность 200, получено %v", got)
	}

	p.SeekTo(42)
	p.SeekFraction(0.5)
	p.SeekTo(-3)

	seeks := h.Snapshot().Seeks
	expected := []playertest.Seek{{Seconds: 42, AllowSeekAhead: true}, {Seconds: 100, AllowSeekAhead: true}, {Seconds: 0, AllowSeekAhead: true}}
	if !slices.Equal(seeks, expected) {
		t.Errorf("Неверные перемотки: %+v", seeks)
	}

	progress := p.Sample()
	if progress.Total != 200*time.Second || progress.Fraction() != 0 {
		t.Errorf("Неверный снимок прогресса: %+v", progress)
	}
}

func TestEngineFailuresAreSwallowed(t *testing.T) {
	p, _, h := newReadyPlayer(t)
	h.Set(func(h *playertest.Handle) {
		h.Time = 30
		h.Fail = true
	})

	p.PlayVideo()
	p.SetVolume(0.3)
	p.SeekTo(5)
	if p.CurrentTime() != 0 {
		t.Error("При ошибке движка время должно быть 0")
	}

	h.Set(func(h *playertest.Handle) {
		h.Fail = false
		h.Panic = true
	})

	p.PlayVideo()
	p.PauseVideo()
	_ = p.LoadVideo(videoB)
	if p.Duration() != 0 {
		t.Error("При панике движка длительность должна быть 0")
	}
	p.Destroy()
}

func TestStateChangeListeners(t *testing.T) {
	p, _, h := newReadyPlayer(t)

	var got []bool
	p.OnStateChange(func(playing bool) { got = append(got, playing) })
	p.OnStateChange(func(bool) { panic("listener failure") })

	for _, s := range []player.State{player.StatePlaying, player.StatePaused, player.StateBuffering, player.StatePlaying, player.StateEnded, player.StateCued} {
		h.FireState(s)
	}

	expected := []bool{true, false, false, true, false, false}
	if !slices.Equal(got, expected) {
		t.Errorf("Ожидалось %v, получено %v", expected, got)
	}
	if p.IsPlaying() {
		t.Error("После окончания плеер не воспроизводит")
	}
}

func TestErrorListeners(t *testing.T) {
	p, _, h := newReadyPlayer(t)

	var codes []player.ErrorCode
	p.OnError(func(code player.ErrorCode) { codes = append(codes, code) })
	h.FireError(player.ErrorNotEmbeddableAlt)

	if !slices.Equal(codes, []player.ErrorCode{player.ErrorNotEmbeddableAlt}) {
		t.Errorf("Неверные коды ошибок: %v", codes)
	}
	if player.ErrorVideoNotFound.String() != "video not found or private" {
		t.Errorf("Неверное описание ошибки: %s", player.ErrorVideoNotFound)
	}
}

func TestDestroyThenReload(t *testing.T) {
	p, eng, first := newReadyPlayer(t)

	stateCalls := 0
	p.OnStateChange(func(bool) { stateCalls++ })

	p.Destroy()

	if !first.Snapshot().Destroyed {
		t.Error("Плеер движка должен быть уничтожен")
	}
	if p.Phase() != player.PhaseAPIReady {
		t.Errorf("После уничтожения ожидался этап api-ready, получен %s", p.Phase())
	}
	if p.BoundVideo() != "" {
		t.Errorf("Привязанное видео должно сбрасываться, получено %q", p.BoundVideo())
	}

	// События уничтоженного плеера игнорируются
	first.FireState(player.StatePlaying)
	if stateCalls != 0 {
		t.Error("Обработчики должны очищаться при уничтожении")
	}

	// Повторное использование после уничтожения
	readyCalls := 0
	p.OnPlayerReady(func() { readyCalls++ })
	if err := p.LoadVideo(videoB); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}

	if len(eng.Handles()) != 2 {
		t.Fatalf("Ожидался новый плеер, создано: %d", len(eng.Handles()))
	}
	if eng.Loads() != 1 {
		t.Errorf("Движок не должен загружаться повторно, загрузок: %d", eng.Loads())
	}
	if p.Phase() != player.PhaseReady || p.BoundVideo() != videoB {
		t.Errorf("Ожидался готовый плеер с %s, этап %s, видео %q", videoB, p.Phase(), p.BoundVideo())
	}
	if readyCalls != 1 {
		t.Errorf("Обработчик готовности нового плеера должен выполниться один раз: %d", readyCalls)
	}

	p.SetVolume(0.25)
	if eng.Last().Snapshot().Volume != 25 {
		t.Error("Команды должны уходить в новый плеер")
	}
}

func TestDestroyClearsPendingCallbacks(t *testing.T) {
	eng := &playertest.Engine{APIReadyOnLoad: true}
	p := player.New(eng)
	_ = p.LoadVideo(videoA)

	stale := 0
	p.OnPlayerReady(func() { stale++ })
	old := eng.Last()
	p.Destroy()

	// Поздняя готовность уничтоженного плеера игнорируется
	old.FireReady()
	if stale != 0 {
		t.Fatal("Отложенные обработчики должны очищаться при уничтожении")
	}

	_ = p.LoadVideo(videoB)
	eng.Last().FireReady()
	if stale != 0 {
		t.Error("Старый обработчик не должен вызываться новым плеером")
	}
	if p.Phase() != player.PhaseReady {
		t.Errorf("Ожидался этап ready, получен %s", p.Phase())
	}
}

func TestLoadAndCreateFailures(t *testing.T) {
	eng := &playertest.Engine{LoadErr: playertest.ErrFake}
	p := player.New(eng)

	_ = p.LoadVideo(videoA)
	if p.Phase() != player.PhaseUninitialized {
		t.Fatalf("При ошибке загрузки этап не меняется, получен %s", p.Phase())
	}

	eng.LoadErr = nil
	eng.APIReadyOnLoad = true
	eng.CreateErr = playertest.ErrFake
	_ = p.LoadVideo(videoA)
	if eng.Loads() != 2 {
		t.Fatalf("После ошибки загрузка должна повторяться, загрузок: %d", eng.Loads())
	}
	if p.Phase() != player.PhaseAPIReady {
		t.Fatalf("При ошибке создания ожидался этап api-ready, получен %s", p.Phase())
	}

	eng.CreateErr = nil
	eng.ReadyOnCreate = true
	_ = p.LoadVideo(videoB)
	if p.Phase() != player.PhaseReady || p.BoundVideo() != videoB {
		t.Errorf("Плеер должен создаваться после ошибки: этап %s, видео %q", p.Phase(), p.BoundVideo())
	}
}

func TestPollStopsOnCancel(t *testing.T) {
	p, _, h := newReadyPlayer(t)
	h.Set(func(h *playertest.Handle) {
		h.Time = 10
		h.Length = 40
	})
	h.FireState(player.StatePlaying)

	ctx, cancel := context.WithCancel(context.Background())
	updates := p.Poll(ctx, 10*time.Millisecond)

	select {
	case progress := <-updates:
		if progress.Current != 10*time.Second || progress.Total != 40*time.Second || !progress.Playing {
			t.Errorf("Неверный снимок прогресса: %+v", progress)
		}
		if progress.Fraction() != 0.25 {
			t.Errorf("Ожидалась доля 0.25, получено %v", progress.Fraction())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Не получено обновление прогресса")
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Канал прогресса должен закрыться после отмены")
		}
	}
}
