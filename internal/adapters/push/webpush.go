// Package push delivers payloads to browser push endpoints over the Web
// Push protocol.
package push

import (
	"context"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/sync/api/internal/core/domain"
	"github.com/sync/api/internal/core/ports"
)

const defaultTTL = 60 * 60 * 24 // seconds

// Client sends Web Push messages signed with VAPID credentials. It is an
// explicitly constructed dependency; credentials live here, not in process
// globals.
type Client struct {
	subscriber string
	publicKey  string
	privateKey string
	ttl        int
}

func NewClient(subscriber, publicKey, privateKey string) *Client {
	return &Client{
		subscriber: subscriber,
		publicKey:  publicKey,
		privateKey: privateKey,
		ttl:        defaultTTL,
	}
}

var _ ports.PushSender = (*Client)(nil)

func (c *Client) Send(ctx context.Context, endpoint domain.PushEndpoint, payload []byte) error {
	sub := &webpush.Subscription{
		Endpoint: endpoint.Endpoint,
		Keys: webpush.Keys{
			P256dh: endpoint.Keys.P256dh,
			Auth:   endpoint.Keys.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		Subscriber:      c.subscriber,
		VAPIDPublicKey:  c.publicKey,
		VAPIDPrivateKey: c.privateKey,
		TTL:             c.ttl,
	})
	if err != nil {
		return fmt.Errorf("push delivery failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// The push service says this endpoint will never work again.
		return fmt.Errorf("push service returned %d: %w", resp.StatusCode, domain.ErrEndpointGone)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("push service returned unexpected status %d", resp.StatusCode)
	}
	return nil
}
