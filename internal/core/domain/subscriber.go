package domain

import "time"

// EndpointKeys are the client keys the push service uses to encrypt payloads.
type EndpointKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushEndpoint is one registered push-delivery destination (a device or
// browser instance) for a user. The endpoint URL identifies it.
type PushEndpoint struct {
	Endpoint string       `json:"endpoint"`
	Keys     EndpointKeys `json:"keys"`
}

// Subscriber holds a user's notification settings and registered endpoints.
// LegacyEndpoint carries the old single-subscription field; readers must go
// through ActiveEndpoints so it is treated as a one-element set.
type Subscriber struct {
	UserID               string         `json:"user_id"`
	NotificationsEnabled bool           `json:"notifications_enabled"`
	Endpoints            []PushEndpoint `json:"subscriptions"`
	LegacyEndpoint       *PushEndpoint  `json:"push_subscription,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// ActiveEndpoints normalizes the legacy and modern representations into one
// set. The modern set wins; the legacy field only matters when the set is
// empty.
func (s *Subscriber) ActiveEndpoints() []PushEndpoint {
	if len(s.Endpoints) > 0 {
		return s.Endpoints
	}
	if s.LegacyEndpoint != nil {
		return []PushEndpoint{*s.LegacyEndpoint}
	}
	return nil
}

// AddEndpoint inserts an endpoint with set semantics, keyed by endpoint URL.
// Reports whether the set changed.
func (s *Subscriber) AddEndpoint(ep PushEndpoint) bool {
	for _, existing := range s.Endpoints {
		if existing.Endpoint == ep.Endpoint {
			return false
		}
	}
	s.Endpoints = append(s.Endpoints, ep)
	return true
}

// RemoveEndpoint deletes the endpoint with the given URL from the set.
// Removing an absent endpoint is a no-op.
func (s *Subscriber) RemoveEndpoint(endpointURL string) bool {
	for i, existing := range s.Endpoints {
		if existing.Endpoint == endpointURL {
			s.Endpoints = append(s.Endpoints[:i], s.Endpoints[i+1:]...)
			return true
		}
	}
	if s.LegacyEndpoint != nil && s.LegacyEndpoint.Endpoint == endpointURL {
		s.LegacyEndpoint = nil
		return true
	}
	return false
}
