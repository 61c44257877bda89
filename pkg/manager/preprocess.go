package manager

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"cmdengine/pkg/cmdtypes"
)

// Preprocessor inspects an invocation before resolution. It may store values in
// the context for handlers. Returning an error interrupts the invocation.
//
// Preprocessors also run before completion, where the context is marked with
// CompletionKey. Completion must stay free of side effects, so preprocessors
// that consume budgets or record activity should check IsCompletion.
type Preprocessor func(cc *cmdtypes.CommandContext, tokens []string) error

// CompletionKey marks contexts created by Suggest.
var CompletionKey = cmdtypes.NewKey[bool]("manager.completion")

// IsCompletion reports whether cc belongs to a completion request.
func IsCompletion(cc *cmdtypes.CommandContext) bool {
	completing, _ := cmdtypes.Load(cc, CompletionKey)
	return completing
}

// ErrRateLimited is returned by the rate limit preprocessor.
var ErrRateLimited = errors.New("too many commands, slow down")

// SenderKey identifies a sender for per-sender state. The default uses fmt's %v.
type SenderKey func(sender any) string

// sweepInterval is how many invocations pass between evictions of idle limiters.
const sweepInterval = 256

// senderLimiter holds one token bucket per sender. Buckets that have refilled
// completely behave exactly like new ones and are evicted, so memory tracks the
// senders active within one refill period.
type senderLimiter struct {
	limit rate.Limit
	burst int
	key   SenderKey
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	calls    int
}

func newSenderLimiter(limit rate.Limit, burst int, key SenderKey) *senderLimiter {
	if key == nil {
		key = func(sender any) string { return fmt.Sprintf("%v", sender) }
	}
	return &senderLimiter{
		limit:    limit,
		burst:    burst,
		key:      key,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *senderLimiter) allow(sender any) bool {
	id := s.key(sender)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls%sweepInterval == 0 {
		s.sweep(now)
	}
	limiter, ok := s.limiters[id]
	if !ok {
		limiter = rate.NewLimiter(s.limit, s.burst)
		s.limiters[id] = limiter
	}
	return limiter.AllowN(now, 1)
}

// sweep drops limiters whose bucket is full again. Callers hold mu.
func (s *senderLimiter) sweep(now time.Time) {
	for id, limiter := range s.limiters {
		if limiter.TokensAt(now) >= float64(s.burst) {
			delete(s.limiters, id)
		}
	}
}

func (s *senderLimiter) tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

func (s *senderLimiter) preprocess(cc *cmdtypes.CommandContext, _ []string) error {
	if IsCompletion(cc) {
		return nil
	}
	if !s.allow(cc.Sender()) {
		return ErrRateLimited
	}
	return nil
}

// RateLimit returns a preprocessor allowing each sender limit invocations per
// second with the given burst. Completion requests are never counted.
func RateLimit(limit rate.Limit, burst int, key SenderKey) Preprocessor {
	return newSenderLimiter(limit, burst, key).preprocess
}

// Inject returns a preprocessor storing value under key in every context.
func Inject[T any](key cmdtypes.Key[T], value T) Preprocessor {
	return func(cc *cmdtypes.CommandContext, _ []string) error {
		cmdtypes.Store(cc, key, value)
		return nil
	}
}
