// Package stores holds the ConversationStore implementations.
package stores

import "errors"

// ErrNotFound is returned by Load when a session has never been saved.
var ErrNotFound = errors.New("session not found")
