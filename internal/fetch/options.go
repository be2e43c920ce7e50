package fetch

import (
	"context"
	"time"

	"github.com/clinova/beacon/internal/cachekey"
)

const DefaultTTL = 5 * time.Minute

// DefaultFreshFor is the age past which a cached value is still served but
// refreshed in the background (stale-while-revalidate). Always shorter than
// the TTL it accompanies.
const DefaultFreshFor = 30 * time.Second

// Operation is an asynchronous unit of work that produces a value or fails:
// here, a fetch against the upstream clinic API. The descriptor identifies
// what is being fetched; key derivation never inspects the Fetch function.
type Operation[T any] struct {
	Descriptor cachekey.Descriptor
	Fetch      func(ctx context.Context) (T, error)
}

// State is the view a subscriber renders from. Error is display-ready; at
// most one of HasData and Error != "" holds after a settled resolution.
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool
	Error   string
}

// Options configure one subscription or one-shot resolution.
// Build them with NewOptions to get the documented defaults; a zero Options
// value has automatic fetching, failure logging and caching all disabled.
type Options[T any] struct {
	// Enabled gates automatic fetching. A disabled subscription stays in its
	// initial (or empty) state until enabled.
	Enabled bool

	// Dependencies distinguish otherwise-identical operations. Changing them
	// to a different value (not merely a different slice) re-resolves.
	Dependencies []cachekey.Dep

	// InitialValue is shown before the first fetch settles and suppresses
	// the cache-hit shortcut.
	InitialValue *T

	// DefaultErrorMessage is preferred over a message derived from the
	// failure itself.
	DefaultErrorMessage string

	OnSuccess func(T)
	OnFailure func(error)
	OnChange  func(State[T])

	LogFailures bool

	// TTL bounds how old a cached value may be and still be served.
	// Zero or negative bypasses the cache for this call site entirely.
	TTL time.Duration

	// FreshFor is the stale-while-revalidate threshold: hits older than this
	// (but within TTL) are served immediately and refreshed in the background.
	FreshFor time.Duration
}

func NewOptions[T any]() Options[T] {
	return Options[T]{
		Enabled:     true,
		LogFailures: true,
		TTL:         DefaultTTL,
		FreshFor:    DefaultFreshFor,
	}
}

func displayMessage(err error, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return err.Error()
}
