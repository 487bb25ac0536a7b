package store

import (
	"errors"

	"github.com/go-authgate/tokenstore/internal/models"
)

var (
	// ErrInvalidIdentity is returned when an identity is neither a string nor an integer
	ErrInvalidIdentity = models.ErrInvalidIdentity

	// ErrInvalidClient is returned when an operation that binds a token is given no client
	ErrInvalidClient = errors.New("client is required")

	// ErrTokenNotFound is returned when no active token matches a code
	ErrTokenNotFound = errors.New("access token not found")

	// ErrClientNotFound is returned when a client does not exist
	ErrClientNotFound = errors.New("client not found")
)
