package utils

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 5, 1, 5},
		{2, 500, 2, MaxPageSize},
		{4, 25, 4, 25},
	}
	for _, tc := range cases {
		page, limit := NormalizePage(tc.page, tc.limit)
		if page != tc.wantPage || limit != tc.wantLimit {
			t.Fatalf("NormalizePage(%d, %d) = %d, %d", tc.page, tc.limit, page, limit)
		}
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	if p.TotalPages != 3 || !p.HasNext || !p.HasPrev || p.Offset() != 10 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	p = NewPagination(1, 10, 0)
	if p.TotalPages != 0 || p.HasNext || p.HasPrev {
		t.Fatalf("unexpected empty pagination: %+v", p)
	}
}

func TestRandString(t *testing.T) {
	s, err := RandString(12)
	if err != nil {
		t.Fatalf("rand: %v", err)
	}
	if len(s) != 12 {
		t.Fatalf("expected 12 characters, got %q", s)
	}
	for _, r := range s {
		if !strings.ContainsRune(passwordCharset, r) {
			t.Fatalf("unexpected character %q", r)
		}
	}
	if strings.ContainsAny(s, "0O1lI") {
		t.Fatalf("expected no ambiguous characters, got %q", s)
	}
	other, _ := RandString(12)
	if other == s {
		t.Fatal("expected distinct random strings")
	}
}

func TestRandHex(t *testing.T) {
	s, err := RandHex(6)
	if err != nil || len(s) != 12 {
		t.Fatalf("expected 12 hex characters, got %q (%v)", s, err)
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got %d calls (%v)", calls, err)
	}
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 5, time.Hour, func() error { return errors.New("down") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestContainsPattern(t *testing.T) {
	cases := map[string]string{
		"Thapa":   "%thapa%",
		"100%":    `%100\%%`,
		"ram_t":   `%ram\_t%`,
		`C:\docs`: `%c:\\docs%`,
	}
	for in, want := range cases {
		if got := ContainsPattern(in); got != want {
			t.Fatalf("ContainsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}
