package avatar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/AnshRaj112/cleersplit-backend/internal/events"
)

// DefaultMaxBytes matches the upload limit of the HTTP avatar endpoint.
const DefaultMaxBytes = 10 << 20

var (
	ErrCancelled  = errors.New("avatar: selection cancelled")
	ErrSuperseded = errors.New("avatar: superseded by a newer selection")
	ErrTooLarge   = errors.New("avatar: image too large")
	ErrDecode     = errors.New("avatar: unsupported or corrupt image")
)

// Status is the outcome of a single load request.
type Status int

const (
	StatusSuccess Status = iota + 1
	StatusFailure
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result reports what happened to a load request. Image is set only on success.
type Result struct {
	Status Status
	Token  uint64
	Image  *Image
	Err    error
}

// Source supplies raw image bytes, typically from a user-driven picker.
// Returning ErrCancelled means the user dismissed the picker.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]byte, error)

func (f SourceFunc) Load(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// Bytes is a Source for data that is already in memory.
func Bytes(data []byte) Source {
	return SourceFunc(func(context.Context) ([]byte, error) {
		return data, nil
	})
}

// Uploader hosts image bytes and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, publicID string) (string, error)
}

// Loader turns picker selections into avatar writes. Every Load takes a new
// request token; a result is applied only if its token is still the latest,
// so a slow earlier load can never overwrite a newer selection.
type Loader struct {
	apply    func(*Image)
	uploader Uploader
	maxBytes int
	logger   *zap.Logger
	bus      *events.Bus

	latest atomic.Uint64
	mu     sync.Mutex
}

// Option configures a Loader.
type Option func(*Loader)

func WithUploader(u Uploader) Option {
	return func(l *Loader) { l.uploader = u }
}

func WithMaxBytes(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBus publishes avatar.load_failed events for failed loads.
func WithBus(bus *events.Bus) Option {
	return func(l *Loader) { l.bus = bus }
}

// NewLoader creates a loader that hands successful images to apply.
func NewLoader(apply func(*Image), opts ...Option) *Loader {
	l := &Loader{
		apply:    apply,
		maxBytes: DefaultMaxBytes,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Invalidate supersedes every in-flight load without starting a new one.
// It waits for an apply that already passed its staleness check, so no
// earlier load can write its image after Invalidate returns.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.latest.Add(1)
}

// Latest returns the most recently issued token.
func (l *Loader) Latest() uint64 {
	return l.latest.Load()
}

// Load fetches, decodes and (optionally) uploads the selection from src, then
// applies it unless a newer request was issued meanwhile.
func (l *Loader) Load(ctx context.Context, src Source) Result {
	token := l.latest.Add(1)
	res := l.load(ctx, token, src)

	switch res.Status {
	case StatusFailure:
		l.logger.Warn("avatar load failed",
			zap.Uint64("token", token),
			zap.Error(res.Err))
		l.publishFailure(res)
	case StatusCancelled:
		l.logger.Debug("avatar load cancelled",
			zap.Uint64("token", token),
			zap.Error(res.Err))
	case StatusSuccess:
		l.logger.Info("avatar updated",
			zap.Uint64("token", token),
			zap.String("format", res.Image.Format),
			zap.Int("size", res.Image.Size))
	}
	return res
}

func (l *Loader) load(ctx context.Context, token uint64, src Source) Result {
	data, err := src.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			return Result{Status: StatusCancelled, Token: token, Err: err}
		}
		return Result{Status: StatusFailure, Token: token, Err: fmt.Errorf("avatar: load selection: %w", err)}
	}
	if len(data) > l.maxBytes {
		return Result{Status: StatusFailure, Token: token, Err: fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), l.maxBytes)}
	}

	img, err := Decode(data)
	if err != nil {
		return Result{Status: StatusFailure, Token: token, Err: err}
	}

	if l.isStale(token) {
		return Result{Status: StatusCancelled, Token: token, Err: ErrSuperseded}
	}

	if l.uploader != nil {
		url, err := l.uploader.Upload(ctx, data, img.Digest)
		if err != nil {
			return Result{Status: StatusFailure, Token: token, Err: fmt.Errorf("avatar: upload: %w", err)}
		}
		img.URL = url
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isStale(token) {
		return Result{Status: StatusCancelled, Token: token, Err: ErrSuperseded}
	}
	if l.apply != nil {
		l.apply(img)
	}
	return Result{Status: StatusSuccess, Token: token, Image: img}
}

func (l *Loader) isStale(token uint64) bool {
	return token != l.latest.Load()
}

func (l *Loader) publishFailure(res Result) {
	if l.bus == nil {
		return
	}
	evt, err := events.New(events.TopicAvatar, events.EventTypeAvatarLoadFailed, map[string]any{
		"token":  res.Token,
		"reason": res.Err.Error(),
	})
	if err != nil {
		return
	}
	l.bus.Publish(evt)
}
