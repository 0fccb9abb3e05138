package workflow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

// Default retry configuration values.
const (
	DefaultMaxRetries         = 3
	DefaultBackoffMinDelay    = 1 * time.Second
	DefaultBackoffMaxDelay    = 30 * time.Second
	DefaultBackoffDelayFactor = 2.0
)

// Backoff computes exponential retry delays with up to 10% jitter.
type Backoff struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	Factor   float64
}

// Delay returns the wait before retry attempt (0-indexed).
func (b Backoff) Delay(attempt int) time.Duration {
	factor := b.Factor
	if factor < 1 {
		factor = 1
	}
	delay := float64(b.MinDelay) * math.Pow(factor, float64(attempt))
	if math.IsInf(delay, 1) || delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}

	jitterMax := int64(delay * 0.1)
	if jitterMax > 0 {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err == nil {
			jitter := int64(binary.BigEndian.Uint64(buf[:])&0x7FFFFFFFFFFFFFFF) % jitterMax
			delay += float64(jitter)
		} else {
			delay += float64(time.Now().UnixNano() % jitterMax)
		}
	}
	return time.Duration(delay)
}

// Retry runs fn until it succeeds, maxRetries retries are used up, or ctx
// is done. The final error is an *OperationError.
func Retry(ctx context.Context, host, op string, maxRetries int, backoff Backoff, fn func() error) error {
	var err error
	attempt := 0
	for ; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= maxRetries {
			break
		}

		delay := backoff.Delay(attempt)
		log.WithFields(log.Fields{"host": host, "operation": op, "attempt": attempt + 1}).
			Warnf("Operation failed, retrying in %v: %v", delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &OperationError{Host: host, Operation: op, Err: ctx.Err(), Retries: attempt}
		case <-timer.C:
		}
	}
	return &OperationError{Host: host, Operation: op, Err: err, Retries: attempt}
}
