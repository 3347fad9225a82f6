package orders

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	numberCounterTTL = 48 * time.Hour
	numberDateLayout = "20060102"
)

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RaiseTo(ctx context.Context, key string, floor int64, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

// CounterNumberGenerator issues PREFIX-YYYYMMDD-NNNNNN numbers from a daily Redis counter.
// When the counter is unavailable it falls back to a random six digit suffix; the
// unique index on order_number catches the rare collision and the caller retries.
type CounterNumberGenerator struct {
	store  counterStore
	prefix string
	now    func() time.Time
}

func NewCounterNumberGenerator(store counterStore, prefix string) *CounterNumberGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "LH"
	}
	return &CounterNumberGenerator{store: store, prefix: prefix, now: time.Now}
}

func (g *CounterNumberGenerator) Next(ctx context.Context) (string, error) {
	day := g.day()
	if g.store != nil {
		if seq, err := g.store.IncrWithTTL(ctx, g.counterKey(day), numberCounterTTL); err == nil {
			return g.format(day, seq%1_000_000), nil
		}
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("random order number: %w", err)
	}
	return g.format(day, n.Int64()), nil
}

// DayPrefix is the leading part shared by every number issued today.
func (g *CounterNumberGenerator) DayPrefix() string {
	return g.dayPrefix(g.day())
}

// Resync moves today's counter past latest, the highest stored number for
// today, so a counter that lost its state stops reissuing taken numbers.
func (g *CounterNumberGenerator) Resync(ctx context.Context, latest string) error {
	if g.store == nil {
		return nil
	}
	day := g.day()
	prefix := g.dayPrefix(day)
	if !strings.HasPrefix(latest, prefix) {
		return fmt.Errorf("order number %q was not issued on %s", latest, day)
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(latest, prefix), 10, 64)
	if err != nil {
		return fmt.Errorf("parse order number %q: %w", latest, err)
	}
	_, err = g.store.RaiseTo(ctx, g.counterKey(day), seq, numberCounterTTL)
	return err
}

func (g *CounterNumberGenerator) day() string {
	return g.now().UTC().Format(numberDateLayout)
}

func (g *CounterNumberGenerator) counterKey(day string) string {
	return g.store.CounterKey("order_number:" + day)
}

func (g *CounterNumberGenerator) dayPrefix(day string) string {
	return g.prefix + "-" + day + "-"
}

func (g *CounterNumberGenerator) format(day string, seq int64) string {
	return fmt.Sprintf("%s%06d", g.dayPrefix(day), seq)
}
