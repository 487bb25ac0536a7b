package bootstrap

import (
	"github.com/go-authgate/tokenstore/internal/handlers"
	"github.com/go-authgate/tokenstore/internal/services"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	token *handlers.TokenHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(tokenService *services.TokenService) handlerSet {
	return handlerSet{
		token: handlers.NewTokenHandler(tokenService),
	}
}
