package model

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Fallback is the user-safe sentence returned when every attempt fails.
// Generate never returns an empty string and never returns an error.
const Fallback = "I apologize, but I'm experiencing technical difficulties. Please try again later."

// QuestionMarker labels the trailing question inside an assembled prompt.
// The final retry attempt collapses the prompt to everything after the last
// marker, so prompt assembly must use it.
const QuestionMarker = "Current question:"

const (
	maxAttempts           = 3
	defaultAttemptTimeout = 25 * time.Second

	// promptCeiling is the character count past which the second attempt
	// truncates the prompt.
	promptCeiling = 8000

	// fragmentLength bounds the third attempt when the prompt carries no
	// question marker.
	fragmentLength = 600

	transientDelay   = 2 * time.Second
	defaultRateDelay = 5 * time.Second

	truncationNote = "\n\n[Note: earlier conversation context was truncated.]"
)

// retryHintPattern picks a "retry in 2.0s" style delay out of an error text.
var retryHintPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*s(?:ec(?:ond)?s?)?\b`)

type failureClass int

const (
	failureRateLimited failureClass = iota
	failureTransient
	failureFatal
)

// Client is the resilient wrapper around a Provider: up to three attempts,
// each under a wall-clock timeout, with the prompt degraded step by step and
// the inter-attempt delay chosen by failure class. All waiting is
// context-aware, so a slow model never blocks other in-flight requests.
type Client struct {
	provider Provider
	log      *zap.Logger
	timeout  time.Duration

	// sleep is swapped out in tests to account for waits without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(provider Provider, log *zap.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	return &Client{
		provider: provider,
		log:      log,
		timeout:  timeout,
		sleep:    sleepContext,
	}
}

// Generate runs the retry ladder and always returns usable text: either an
// extracted model response or Fallback.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float32) string {
	opts := Options{
		Temperature:     temperature,
		MaxOutputTokens: 2000,
		TopP:            0.8,
		TopK:            40,
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := c.attempt(ctx, promptForAttempt(prompt, attempt), opts)
		if err == nil {
			if text != "" {
				return text
			}
			// Nothing extractable counts as a failed attempt, but there is
			// no error to classify and nothing to wait for.
			c.log.Warn("model returned no extractable text",
				zap.String("provider", c.provider.Name()), zap.Int("attempt", attempt))
			continue
		}

		if ctx.Err() != nil {
			c.log.Warn("model call cancelled by caller", zap.Int("attempt", attempt))
			return Fallback
		}

		switch classify(err) {
		case failureRateLimited:
			delay := retryDelayFrom(err.Error())
			c.log.Warn("model rate limited",
				zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
			if attempt < maxAttempts && c.sleep(ctx, delay) != nil {
				return Fallback
			}
		case failureTransient:
			c.log.Warn("transient model failure",
				zap.Int("attempt", attempt), zap.Error(err))
			if attempt < maxAttempts && c.sleep(ctx, transientDelay) != nil {
				return Fallback
			}
		default:
			// Not worth burning the remaining attempts on.
			c.log.Error("non-retryable model failure",
				zap.Int("attempt", attempt), zap.Error(err))
			return Fallback
		}
	}
	return Fallback
}

func (c *Client) attempt(ctx context.Context, prompt string, opts Options) (string, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.provider.Generate(actx, prompt, opts)
	if err != nil {
		return "", err
	}
	c.noteFinishReasons(resp)
	return resp.ExtractText(), nil
}

func (c *Client) noteFinishReasons(r *Response) {
	for _, cand := range r.Candidates {
		switch cand.FinishReason {
		case "MAX_TOKENS":
			c.log.Warn("response truncated at output token limit")
		case "SAFETY":
			c.log.Warn("response blocked by safety filter")
		}
	}
}

// promptForAttempt degrades the prompt step by step: full, then truncated to
// the ceiling with a note, then collapsed to the trailing question fragment
// to maximize the chance of any response at all.
func promptForAttempt(prompt string, attempt int) string {
	switch attempt {
	case 2:
		if len(prompt) > promptCeiling {
			return prompt[:promptCeiling] + truncationNote
		}
		return prompt
	case 3:
		return questionFragment(prompt)
	default:
		return prompt
	}
}

func questionFragment(prompt string) string {
	if i := strings.LastIndex(prompt, QuestionMarker); i >= 0 {
		return strings.TrimSpace(prompt[i:])
	}
	if len(prompt) > fragmentLength {
		return prompt[len(prompt)-fragmentLength:]
	}
	return prompt
}

func classify(err error) failureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failureTransient
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "status 429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "resource exhausted"):
		return failureRateLimited
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "connection"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "status 502"),
		strings.Contains(msg, "status 503"):
		return failureTransient
	}
	return failureFatal
}

// retryDelayFrom parses a suggested delay out of a rate-limit error text,
// falling back to defaultRateDelay when no hint is embedded.
func retryDelayFrom(msg string) time.Duration {
	m := retryHintPattern.FindStringSubmatch(msg)
	if m == nil {
		return defaultRateDelay
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil || secs <= 0 {
		return defaultRateDelay
	}
	return time.Duration(secs * float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
