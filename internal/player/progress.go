package player

import (
	"context"
	"time"
)

// PollInterval - период опроса позиции воспроизведения
const PollInterval = time.Second

// Progress - снимок позиции воспроизведения
type Progress struct {
	Current time.Duration // Текущая позиция
	Total   time.Duration // Общая продолжительность
	Playing bool          // Воспроизводится ли видео
}

// Fraction возвращает долю прослушанного в диапазоне 0..1
func (pr Progress) Fraction() float64 {
	if pr.Total <= 0 {
		return 0
	}
	return min(1, max(0, float64(pr.Current)/float64(pr.Total)))
}

// Sample возвращает текущую позицию воспроизведения
func (p *Player) Sample() Progress {
	return Progress{
		Current: seconds(p.CurrentTime()),
		Total:   seconds(p.Duration()),
		Playing: p.IsPlaying(),
	}
}

// SeekFraction перематывает на долю fraction от длительности
func (p *Player) SeekFraction(fraction float64) {
	duration := p.Duration()
	if duration <= 0 {
		return
	}
	p.SeekTo(min(1, max(0, fraction)) * duration)
}

// Poll опрашивает плеер с периодом interval и отправляет снимки в канал,
// пока не отменен ctx. Канал закрывается после отмены. Если получатель
// не успевает, обновление пропускается.
func (p *Player) Poll(ctx context.Context, interval time.Duration) <-chan Progress {
	if interval <= 0 {
		interval = PollInterval
	}
	progressChan := make(chan Progress, 1)

	go func() {
		defer close(progressChan)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case progressChan <- p.Sample():
				default:
				}
			}
		}
	}()

	return progressChan
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
