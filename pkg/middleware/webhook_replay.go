package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/finenotify/finenotify/pkg/webhooks"
)

// WebhookReplayProtector remembers body digests for a TTL and rejects exact
// redeliveries inside that window. Keyed on content because the provider
// carries no usable delivery id header.
type WebhookReplayProtector struct {
	ttl time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewWebhookReplayProtector(ttl time.Duration) *WebhookReplayProtector {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &WebhookReplayProtector{
		ttl:  ttl,
		seen: make(map[string]time.Time),
	}
}

func (p *WebhookReplayProtector) Check(_ context.Context, _ *http.Request, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	digest := sha256.Sum256(body)
	key := hex.EncodeToString(digest[:])
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	for k, exp := range p.seen {
		if !now.Before(exp) {
			delete(p.seen, k)
		}
	}

	if exp, ok := p.seen[key]; ok && now.Before(exp) {
		return webhooks.ErrReplayDetected
	}
	p.seen[key] = now.Add(p.ttl)
	return nil
}
