package flourish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
	"golang.org/x/sync/singleflight"
)

// ErrSoundNotRegistered is returned by Play for a file sound that has no
// registration.
var ErrSoundNotRegistered = errors.New("sound not registered")

// resampleQuality is the interpolation quality used when a file's sample
// rate differs from the speaker's.
const resampleQuality = 4

// BeepPlayer plays feedback through the system speaker. Decoded files are
// shared between registrations of the same path.
type BeepPlayer struct {
	cfg  SoundConfig
	rate beep.SampleRate

	// Open reads sound files. It defaults to os.Open.
	Open func(path string) (io.ReadCloser, error)

	// initSpeaker and play are replaced in tests.
	initSpeaker func(sr beep.SampleRate, bufferSize int) error
	play        func(s beep.Streamer)

	decode singleflight.Group

	mu      sync.Mutex
	buffers map[string]*soundBuffer
	mixer   *beep.Mixer
	started bool
}

type soundBuffer struct {
	buf  *beep.Buffer
	refs int
}

// NewBeepPlayer returns a player for cfg. The speaker is opened on Start.
func NewBeepPlayer(cfg SoundConfig) *BeepPlayer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSoundConfig().SampleRate
	}
	p := &BeepPlayer{
		cfg:     cfg,
		rate:    beep.SampleRate(cfg.SampleRate),
		buffers: make(map[string]*soundBuffer),
		mixer:   &beep.Mixer{},
		Open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
		initSpeaker: speaker.Init,
	}
	p.play = func(s beep.Streamer) {
		speaker.Lock()
		p.mixer.Add(s)
		speaker.Unlock()
	}
	return p
}

// Start opens the speaker with a 100ms buffer and attaches the mixer.
func (p *BeepPlayer) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.initSpeaker(p.rate, p.rate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(p.mixer)
	p.started = true
	return nil
}

// Stop silences everything that is playing.
func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.started = false
}

// Register decodes a file sound once per path and counts the holders.
// Generated tones need no registration.
func (p *BeepPlayer) Register(ctx context.Context, s Sound) error {
	if s.Path == "" {
		return nil
	}
	p.mu.Lock()
	if b, ok := p.buffers[s.Path]; ok {
		b.refs++
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	ch := p.decode.DoChan(s.Path, func() (any, error) {
		return p.load(s.Path)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.Err != nil {
		return res.Err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.buffers[s.Path]; ok {
		b.refs++
		return nil
	}
	p.buffers[s.Path] = &soundBuffer{buf: res.Val.(*beep.Buffer), refs: 1}
	return nil
}

// load decodes a WAV file into memory at the player's sample rate.
func (p *BeepPlayer) load(path string) (*beep.Buffer, error) {
	f, err := p.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != p.rate {
		src = beep.Resample(resampleQuality, format.SampleRate, p.rate, streamer)
	}
	format.SampleRate = p.rate
	buf := beep.NewBuffer(format)
	buf.Append(src)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return buf, nil
}

// Unregister drops one holder of a file sound, freeing it after the last.
func (p *BeepPlayer) Unregister(ctx context.Context, s Sound) error {
	if s.Path == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buffers[s.Path]
	if !ok {
		return fmt.Errorf("%s: %w", s.Path, ErrSoundNotRegistered)
	}
	b.refs--
	if b.refs <= 0 {
		delete(p.buffers, s.Path)
	}
	return nil
}

// Registered returns the number of holders of path.
func (p *BeepPlayer) Registered(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.buffers[path]; ok {
		return b.refs
	}
	return 0
}

// Play mixes s into the speaker output.
func (p *BeepPlayer) Play(ctx context.Context, s Sound) error {
	src, err := p.streamer(s)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.play(withVolume(src, s.volume()*p.cfg.MasterVolume))
	return nil
}

func (p *BeepPlayer) streamer(s Sound) (beep.Streamer, error) {
	if s.Path == "" {
		tone, err := generators.SineTone(p.rate, s.Tone)
		if err != nil {
			return nil, fmt.Errorf("tone %g: %w", s.Tone, err)
		}
		return beep.Take(p.rate.N(s.duration()), tone), nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buffers[s.Path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", s.Path, ErrSoundNotRegistered)
	}
	return b.buf.Streamer(0, b.buf.Len()), nil
}

// withVolume scales s by a linear gain. Zero gain is silent, since the
// logarithmic volume of zero is minus infinity.
func withVolume(s beep.Streamer, gain float64) beep.Streamer {
	if gain <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(gain)}
}
