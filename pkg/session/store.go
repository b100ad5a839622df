// Package session provides the conversation history store: the external,
// longer-lived collection a logical call is seeded from and appended to.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/routerkit/routerkit-go/pkg/model"
)

// ErrInvalidKey reports an empty or whitespace history key.
var ErrInvalidKey = errors.New("session: history key is empty")

// ErrStoreClosed reports operations on a closed store.
var ErrStoreClosed = errors.New("session: store is closed")

// Store is the history collaborator. Load runs once before a logical call
// starts; Append runs once after it ends with only the messages produced
// after the initial load.
type Store interface {
	Load(ctx context.Context, key string) ([]model.Message, error)
	Append(ctx context.Context, key string, msgs []model.Message) error
}

type nopStore struct{}

func (nopStore) Load(context.Context, string) ([]model.Message, error) { return nil, nil }
func (nopStore) Append(context.Context, string, []model.Message) error { return nil }

// Nop returns the store that remembers nothing, for callers that manage
// history themselves.
func Nop() Store { return nopStore{} }

var _ Store = nopStore{}

func normalizeKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", ErrInvalidKey
	}
	return trimmed, nil
}
