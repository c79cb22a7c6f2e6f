package macro

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// KeyHandler processes one replayed key. A non-nil error stops playback.
type KeyHandler func(key string) error

// Player replays recorded macros.
type Player struct {
	recorder *Recorder
	mu       sync.Mutex
	playing  atomic.Bool
	cancel   context.CancelFunc
}

// NewPlayer creates a player reading macros from recorder.
func NewPlayer(recorder *Recorder) *Player {
	return &Player{recorder: recorder}
}

// Play replays the macro in reg count times (minimum 1), passing each key
// to handler. The special register @ replays the last played macro.
//
// Playback is synchronous. A macro that plays itself recursively fails
// with ErrAlreadyPlaying.
func (p *Player) Play(reg rune, count int, handler KeyHandler) error {
	if handler == nil {
		return fmt.Errorf("macro play: nil handler")
	}
	if reg == '@' {
		reg = p.recorder.LastPlayed()
		if reg == 0 {
			return ErrNothingPlayed
		}
	}
	reg = NormalizeRegister(reg)
	if reg == 0 {
		return ErrInvalidRegister
	}

	keys := p.recorder.Get(reg)
	if len(keys) == 0 {
		return fmt.Errorf("%w: %c", ErrEmptyRegister, reg)
	}
	if count < 1 {
		count = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	if p.playing.Load() {
		p.mu.Unlock()
		cancel()
		return ErrAlreadyPlaying
	}
	p.cancel = cancel
	p.playing.Store(true)
	p.mu.Unlock()

	defer func() {
		cancel()
		p.playing.Store(false)
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
	}()

	p.recorder.SetLastPlayed(reg)

	for i := 0; i < count; i++ {
		for _, k := range keys {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := handler(k); err != nil {
				return fmt.Errorf("macro %c: key %q: %w", reg, k, err)
			}
		}
	}
	return nil
}

// IsPlaying reports whether a macro is being replayed.
func (p *Player) IsPlaying() bool {
	return p.playing.Load()
}

// Stop cancels the playback in progress.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}
