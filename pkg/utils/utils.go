// Package utils provides retry/backoff, pagination, LIKE escaping, secure random strings and pointer helpers.
package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Retry calls fn up to maxAttempts times with a fixed delay.
func Retry(ctx context.Context, maxAttempts int, delay time.Duration, fn func() error) error {
	return RetryWithBackoff(ctx, maxAttempts, delay, delay, fn)
}

// RetryWithBackoff retries with exponential backoff (x1.5) capped at maxDelay.
// It stops early when ctx is done.
func RetryWithBackoff(ctx context.Context, maxAttempts int, initialDelay time.Duration, maxDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * 1.5)
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}
	return lastErr
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination page metadata returned with list responses
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NormalizePage clamps page to >= 1 and limit to 1..MaxPageSize (default DefaultPageSize).
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// NewPagination builds the page metadata for total rows.
func NewPagination(page, limit int, total int64) *Pagination {
	page, limit = NormalizePage(page, limit)
	pages := (total + int64(limit) - 1) / int64(limit)

	return &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    int64(page) < pages,
		HasPrev:    page > 1,
	}
}

// Offset database offset for the page
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern lowercases s and returns a LIKE pattern matching it anywhere, with
// the wildcards of s escaped. Pair it with ESCAPE '\'.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

const passwordCharset = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandString returns a string of length characters drawn uniformly from an unambiguous
// alphanumeric set using crypto/rand.
func RandString(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate random string: %w", err)
		}
		b[i] = passwordCharset[n.Int64()]
	}
	return string(b), nil
}

// RandHex returns n random bytes hex-encoded (2n characters).
func RandHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random hex: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
