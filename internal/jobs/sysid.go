package jobs

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	sysidPrefix   = "CH-"
	sysidAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	sysidLength   = 6
	sysidAttempts = 100
)

// Counter is the uniqueness probe the generator needs from the store.
type Counter interface {
	CountJobsWithSystemID(ctx context.Context, systemID string) (int, error)
}

// Generator produces globally unique human-readable system IDs. The
// store enforces uniqueness only through a secondary index, so
// generation tolerates races by probing and retrying rather than
// reserving.
type Generator struct {
	Counter Counter

	// now is swappable for tests.
	now func() time.Time
}

func NewGenerator(counter Counter) *Generator {
	return &Generator{Counter: counter, now: time.Now}
}

// GenerateSystemID tries three tiers in order: random characters,
// timestamp-derived digits, then UUID prefixes. Each candidate is
// verified against the store; a store error during the probe moves on
// to the next candidate. ErrGenerationExhausted means every tier
// failed.
func (g *Generator) GenerateSystemID(ctx context.Context) (string, error) {
	if g == nil || g.Counter == nil {
		return "", fmt.Errorf("sysid generator not configured")
	}

	for attempt := 0; attempt < sysidAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := randomCandidate()
		if err != nil {
			continue
		}
		if g.isFree(ctx, candidate) {
			return candidate, nil
		}
	}

	base := g.clock()().UnixMilli()
	for seq := int64(0); seq < sysidAttempts; seq++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("%s%06d", sysidPrefix, (base+seq)%1_000_000)
		if g.isFree(ctx, candidate) {
			return candidate, nil
		}
	}

	for attempt := 0; attempt < sysidAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := sysidPrefix + strings.ToUpper(uuid.NewString()[:sysidLength])
		if g.isFree(ctx, candidate) {
			return candidate, nil
		}
	}

	return "", ErrGenerationExhausted
}

func (g *Generator) isFree(ctx context.Context, candidate string) bool {
	count, err := g.Counter.CountJobsWithSystemID(ctx, candidate)
	return err == nil && count == 0
}

func (g *Generator) clock() func() time.Time {
	if g.now != nil {
		return g.now
	}
	return time.Now
}

func randomCandidate() (string, error) {
	var b strings.Builder
	b.WriteString(sysidPrefix)
	max := big.NewInt(int64(len(sysidAlphabet)))
	for i := 0; i < sysidLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(sysidAlphabet[n.Int64()])
	}
	return b.String(), nil
}
