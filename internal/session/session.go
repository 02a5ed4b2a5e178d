// Package session maps transport connections to the secret they presented.
// Connections start anonymous; a login or reconnect handshake records the
// claimed secret, and every later request is judged by what was recorded, not
// by what the request itself claims.
package session

import "sync"

// Registry is the connection-id -> presented-secret map. Safe for concurrent
// use; the transport drops entries as connections close.
type Registry struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{secrets: make(map[string]string)}
}

// Record stores the secret a connection presented.
func (r *Registry) Record(connID, secret string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.secrets[connID] = secret
}

// Resolve returns the secret recorded for a connection, or the empty string
// for connections that never logged in.
func (r *Registry) Resolve(connID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.secrets[connID]
}

// Drop removes a connection's slot.
func (r *Registry) Drop(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.secrets, connID)
}

// Authorizer checks presented secrets against the one configured GM secret.
type Authorizer struct {
	gmSecret string
}

// NewAuthorizer returns an authorizer for the given GM secret.
func NewAuthorizer(gmSecret string) *Authorizer {
	return &Authorizer{gmSecret: gmSecret}
}

// IsGM reports whether the secret carries GM privilege. An empty configured
// secret authorizes nobody; the service fails closed.
func (a *Authorizer) IsGM(secret string) bool {
	return a.gmSecret != "" && secret == a.gmSecret
}
