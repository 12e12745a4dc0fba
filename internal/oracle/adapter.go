package oracle

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"whatbeats/internal/store"
	util "whatbeats/internal/util"
)

// RetryPolicy bounds how the Adapter re-attempts a failed oracle call:
// randomized exponential backoff between attempts, retrying only errors the
// predicate classes as transient.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Retryable:   IsTransient,
	}
}

// backoff returns the jittered delay before the given 1-based attempt.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	ceiling := p.BaseDelay << (attempt - 1)
	if ceiling > p.MaxDelay {
		ceiling = p.MaxDelay
	}
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(ceiling)))
}

// IsTransient reports whether an oracle error is worth retrying: rate limits
// and server-side hiccups are, bad-argument and content-policy errors are not.
func IsTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	// Deadline and cancellation bubble up to the outer ceiling instead.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	// Unknown transport-level failures get the benefit of the doubt.
	return true
}

// Adapter is the fail-closed front door to the Judge: it memoizes verdicts,
// retries transient failures under an overall deadline, and never returns an
// error to the caller. Anything unrecoverable is a NO.
type Adapter struct {
	judge    Judge
	cache    store.VerdictCache
	policy   RetryPolicy
	deadline time.Duration
}

func NewAdapter(judge Judge, cache store.VerdictCache, policy RetryPolicy, deadline time.Duration) *Adapter {
	return &Adapter{
		judge:    judge,
		cache:    cache,
		policy:   policy,
		deadline: deadline,
	}
}

// Verdict reports whether guess beats currentWord. Case and surrounding
// whitespace of the inputs never change the answer.
func (a *Adapter) Verdict(ctx context.Context, currentWord, guess string) bool {
	currentWord = strings.TrimSpace(currentWord)
	guess = strings.TrimSpace(guess)

	if verdict, ok := a.cache.Get(currentWord, guess); ok {
		util.LogInfo("Verdict cache hit: %q vs %q -> %v", guess, currentWord, verdict)
		return verdict
	}

	ctx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	verdict, err := a.call(ctx, currentWord, guess)
	if err != nil {
		util.LogWarn("Oracle failed for %q vs %q, failing closed: %v", guess, currentWord, err)
		return false
	}

	a.cache.Set(currentWord, guess, verdict)
	return verdict
}

func (a *Adapter) call(ctx context.Context, currentWord, guess string) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= a.policy.MaxAttempts; attempt++ {
		verdict, err := a.judge.Judge(ctx, currentWord, guess)
		if err == nil {
			return verdict, nil
		}
		lastErr = err
		if !a.policy.Retryable(err) {
			return false, err
		}
		if attempt == a.policy.MaxAttempts {
			break
		}

		delay := a.policy.backoff(attempt)
		util.LogWarn("Oracle attempt %d/%d failed (%v), retrying in %v", attempt, a.policy.MaxAttempts, err, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return false, lastErr
}
