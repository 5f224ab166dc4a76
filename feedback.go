package flourish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Sound is one feedback asset: a WAV file, or a generated tone when Path is
// empty.
type Sound struct {
	Path string
	// Tone is the frequency in hertz of a generated sound.
	Tone float64
	// Duration of a generated tone. Zero selects 50ms.
	Duration time.Duration
	// Volume in [0, 1]. Zero selects 1.
	Volume float64
}

// Key identifies the sound for registration bookkeeping.
func (s Sound) Key() string {
	if s.Path != "" {
		return s.Path
	}
	return fmt.Sprintf("tone:%g:%s", s.Tone, s.duration())
}

func (s Sound) duration() time.Duration {
	if s.Duration <= 0 {
		return 50 * time.Millisecond
	}
	return s.Duration
}

func (s Sound) volume() float64 {
	if s.Volume == 0 {
		return 1
	}
	return Clamp01(s.Volume)
}

// FeedbackPlayer is an audio backend. Every method may fail; failures are
// logged by the engine and never reach effects.
type FeedbackPlayer interface {
	Start(ctx context.Context) error
	Stop()
	Register(ctx context.Context, s Sound) error
	Play(ctx context.Context, s Sound) error
	Unregister(ctx context.Context, s Sound) error
}

// NopPlayer accepts everything and plays nothing.
type NopPlayer struct{}

func (NopPlayer) Start(context.Context) error             { return nil }
func (NopPlayer) Stop()                                   {}
func (NopPlayer) Register(context.Context, Sound) error   { return nil }
func (NopPlayer) Play(context.Context, Sound) error       { return nil }
func (NopPlayer) Unregister(context.Context, Sound) error { return nil }

// ErrFeedbackQueueFull is logged when requests arrive faster than the
// backend can serve them.
var ErrFeedbackQueueFull = errors.New("feedback queue full")

const (
	feedbackQueueSize  = 64
	feedbackJobTimeout = 2 * time.Second
)

type feedbackOp uint8

const (
	opRegister feedbackOp = iota
	opPlay
	opUnregister
)

func (o feedbackOp) String() string {
	switch o {
	case opRegister:
		return "register"
	case opPlay:
		return "play"
	default:
		return "unregister"
	}
}

type feedbackJob struct {
	op    feedbackOp
	sound Sound
}

// FeedbackEngine shares one FeedbackPlayer between effect instances. The
// player runs only while at least one holder has acquired the engine.
// Requests are served in order on a background goroutine.
type FeedbackEngine struct {
	player FeedbackPlayer

	mu      sync.Mutex
	refs    int
	jobs    chan feedbackJob
	cancel  context.CancelFunc
	done    chan struct{}
	started int
	failed  int
}

// NewFeedbackEngine returns an idle engine around player. A nil player is
// replaced by NopPlayer.
func NewFeedbackEngine(player FeedbackPlayer) *FeedbackEngine {
	if player == nil {
		player = NopPlayer{}
	}
	return &FeedbackEngine{player: player}
}

// Acquire takes a reference, starting the player on the first one. The
// player starts on the serving goroutine after the previous session's
// player has stopped.
func (e *FeedbackEngine) Acquire() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refs++
	if e.refs != 1 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	prev := e.done
	e.started++
	e.cancel = cancel
	e.jobs = make(chan feedbackJob, feedbackQueueSize)
	e.done = make(chan struct{})
	go e.serve(ctx, prev, e.jobs, e.done)
}

// Release drops a reference. After the last one it cancels outstanding
// requests and returns without waiting; the serving goroutine stops the
// player once the queue is drained. Extra releases are ignored.
func (e *FeedbackEngine) Release() {
	e.mu.Lock()
	if e.refs == 0 {
		e.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		e.mu.Unlock()
		return
	}
	jobs, cancel := e.jobs, e.cancel
	e.jobs, e.cancel = nil, nil
	e.mu.Unlock()

	cancel()
	close(jobs)
}

// Wait blocks until the most recent session has been released and its
// player stopped. It returns at once if the engine never started.
func (e *FeedbackEngine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Refs returns the number of outstanding references.
func (e *FeedbackEngine) Refs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refs
}

// Running reports whether a session is open.
func (e *FeedbackEngine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.jobs != nil
}

// Starts returns how many times the player was started.
func (e *FeedbackEngine) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// Failures returns how many player calls have failed.
func (e *FeedbackEngine) Failures() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failed
}

// Register asks the player to prepare s.
func (e *FeedbackEngine) Register(s Sound) { e.enqueue(feedbackJob{opRegister, s}) }

// Play asks the player to play s.
func (e *FeedbackEngine) Play(s Sound) { e.enqueue(feedbackJob{opPlay, s}) }

// Unregister tells the player s is no longer needed by one holder.
func (e *FeedbackEngine) Unregister(s Sound) { e.enqueue(feedbackJob{opUnregister, s}) }

func (e *FeedbackEngine) enqueue(j feedbackJob) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.jobs == nil {
		return
	}
	select {
	case e.jobs <- j:
	default:
		e.failed++
		logf("feedback: %s %s: %v", j.op, j.sound.Key(), ErrFeedbackQueueFull)
	}
}

func (e *FeedbackEngine) serve(ctx context.Context, prev <-chan struct{}, jobs <-chan feedbackJob, done chan<- struct{}) {
	defer close(done)
	if prev != nil {
		<-prev
	}
	if err := e.player.Start(ctx); err != nil {
		e.fail(fmt.Errorf("start: %w", err))
	}
	for j := range jobs {
		err := e.run(ctx, j)
		// Requests cut short by Release are not failures.
		if err != nil && !(ctx.Err() != nil && errors.Is(err, context.Canceled)) {
			e.fail(err)
		}
	}
	e.player.Stop()
}

func (e *FeedbackEngine) fail(err error) {
	e.mu.Lock()
	e.failed++
	e.mu.Unlock()
	logf("feedback: %v", err)
}

func (e *FeedbackEngine) run(ctx context.Context, j feedbackJob) error {
	ctx, cancel := context.WithTimeout(ctx, feedbackJobTimeout)
	defer cancel()
	var err error
	switch j.op {
	case opRegister:
		err = e.player.Register(ctx, j.sound)
	case opPlay:
		err = e.player.Play(ctx, j.sound)
	case opUnregister:
		err = e.player.Unregister(ctx, j.sound)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", j.op, j.sound.Key(), err)
	}
	return nil
}

var (
	sharedFeedbackMu sync.Mutex
	sharedFeedback   *FeedbackEngine
)

// SharedFeedbackEngine returns the process-wide engine, creating it from
// the environment on first use.
func SharedFeedbackEngine() *FeedbackEngine {
	sharedFeedbackMu.Lock()
	defer sharedFeedbackMu.Unlock()
	if sharedFeedback == nil {
		sharedFeedback = NewFeedbackEngine(defaultFeedbackPlayer())
	}
	return sharedFeedback
}

// SetSharedFeedbackEngine replaces the process-wide engine and returns the
// previous one. Instances already holding the old engine keep it.
func SetSharedFeedbackEngine(e *FeedbackEngine) *FeedbackEngine {
	sharedFeedbackMu.Lock()
	defer sharedFeedbackMu.Unlock()
	prev := sharedFeedback
	sharedFeedback = e
	return prev
}

func defaultFeedbackPlayer() FeedbackPlayer {
	cfg, err := LoadSoundConfig()
	if err != nil {
		logf("feedback: %v", err)
	}
	if !cfg.Enabled {
		return NopPlayer{}
	}
	return NewBeepPlayer(cfg)
}

// SoundConfig configures the audio backend.
type SoundConfig struct {
	Enabled      bool
	MasterVolume float64
	SampleRate   int
}

// DefaultSoundConfig enables audio at full volume and 44.1kHz.
func DefaultSoundConfig() SoundConfig {
	return SoundConfig{Enabled: true, MasterVolume: 1, SampleRate: 44100}
}

// LoadSoundConfig reads FLOURISH_AUDIO_ENABLED, FLOURISH_MASTER_VOLUME
// (0-100), and FLOURISH_SAMPLE_RATE. Unparseable values keep their default
// and are reported together in the error.
func LoadSoundConfig() (SoundConfig, error) {
	cfg := DefaultSoundConfig()
	var errs []error

	if v := os.Getenv("FLOURISH_AUDIO_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FLOURISH_AUDIO_ENABLED: %w", err))
		} else {
			cfg.Enabled = b
		}
	}
	if v := os.Getenv("FLOURISH_MASTER_VOLUME"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FLOURISH_MASTER_VOLUME: %w", err))
		} else {
			cfg.MasterVolume = Clamp01(float64(n) / 100)
		}
	}
	if v := os.Getenv("FLOURISH_SAMPLE_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("FLOURISH_SAMPLE_RATE: %w", err))
		case n > 0:
			cfg.SampleRate = n
		}
	}
	return cfg, errors.Join(errs...)
}

// Feedback plays a sound on every change. The sound is registered with the
// shared engine when the effect is attached and released when it is
// detached.
func Feedback(s Sound) ChangeEffect {
	return FeedbackWith(nil, s)
}

// FeedbackWith is Feedback on a specific engine. A nil engine selects the
// shared one.
func FeedbackWith(engine *FeedbackEngine, s Sound) ChangeEffect {
	return Simulated("feedback", func(EffectContext) EffectRuntime {
		e := engine
		if e == nil {
			e = SharedFeedbackEngine()
		}
		e.Acquire()
		e.Register(s)
		return &feedbackRuntime{engine: e, sound: s}
	})
}

type feedbackRuntime struct {
	engine *FeedbackEngine
	sound  Sound
	closed bool
}

func (r *feedbackRuntime) Impulse() {
	if !r.closed {
		r.engine.Play(r.sound)
	}
}

func (r *feedbackRuntime) Step(float64) bool     { return true }
func (r *feedbackRuntime) Finite() bool          { return true }
func (r *feedbackRuntime) Reset()                {}
func (r *feedbackRuntime) Present(*Presentation) {}

func (r *feedbackRuntime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.engine.Unregister(r.sound)
	r.engine.Release()
}
