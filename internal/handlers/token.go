package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-authgate/tokenstore/internal/logger"
	"github.com/go-authgate/tokenstore/internal/models"
	"github.com/go-authgate/tokenstore/internal/services"
	"github.com/go-authgate/tokenstore/internal/store"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokenService *services.TokenService
}

func NewTokenHandler(ts *services.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: ts}
}

// HistoricalGrants returns per-day grant counts.
//
//	GET /api/v1/grants/historical?days=60&client_id=1
//	{"data":[{"ts":20512,"granted":3}]}
func (h *TokenHandler) HistoricalGrants(c *gin.Context) {
	days, ok := queryInt(c, "days", 0)
	if !ok {
		return
	}

	var clientID *uint
	if raw := c.Query("client_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "client_id must be a positive integer")
			return
		}
		cid := uint(id)
		clientID = &cid
	}

	buckets, err := h.tokenService.HistoricalGrants(c.Request.Context(), days, clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": buckets})
}

// ClientTokens lists a page of a client's tokens in creation order.
//
//	GET /api/v1/clients/:id/tokens?offset=0&limit=100
func (h *TokenHandler) ClientTokens(c *gin.Context) {
	clientID, ok := paramClientID(c)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", store.DefaultPageOffset)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", store.DefaultPageLimit)
	if !ok {
		return
	}

	tokens, err := h.tokenService.TokensForClient(c.Request.Context(), clientID, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tokensOrEmpty(tokens)})
}

// IssueClientToken mints a token for the client that is not bound to an identity.
//
//	POST /api/v1/clients/:id/tokens  (form: scope)
func (h *TokenHandler) IssueClientToken(c *gin.Context) {
	clientID, ok := paramClientID(c)
	if !ok {
		return
	}

	token, err := h.tokenService.IssueToken(c.Request.Context(), clientID, c.PostForm("scope"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, token)
}

// GrantIdentityToken returns the active token for (identity, client, scope), minting one if needed.
//
//	POST /api/v1/clients/:id/grants  (form: identity, scope)
func (h *TokenHandler) GrantIdentityToken(c *gin.Context) {
	clientID, ok := paramClientID(c)
	if !ok {
		return
	}
	identity := c.PostForm("identity")
	if identity == "" {
		badRequest(c, "identity is required")
		return
	}

	token, err := h.tokenService.GetOrIssueToken(
		c.Request.Context(),
		models.StringIdentity(identity),
		clientID,
		c.PostForm("scope"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// IdentityTokens lists every token issued for an identity, revoked or not.
//
//	GET /api/v1/identities/:identity/tokens
func (h *TokenHandler) IdentityTokens(c *gin.Context) {
	identity := models.StringIdentity(c.Param("identity"))

	tokens, err := h.tokenService.TokensForIdentity(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tokensOrEmpty(tokens)})
}

// Revoke revokes an active token by its code.
//
//	POST /api/v1/tokens/revoke  (form: token)
func (h *TokenHandler) Revoke(c *gin.Context) {
	code := c.PostForm("token")
	if code == "" {
		badRequest(c, "token parameter is required")
		return
	}

	token, err := h.tokenService.RevokeByCode(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": token.ID, "revoked": token.Revoked})
}

// TokenInfo resolves the presented bearer code and records the access.
//
//	GET /oauth/tokeninfo  (Authorization: Bearer <code>)
func (h *TokenHandler) TokenInfo(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	code, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || code == "" {
		c.Header("WWW-Authenticate", `Bearer realm="tokenstore"`)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_token",
			"error_description": "missing bearer token",
		})
		return
	}

	token, err := h.tokenService.Authenticate(c.Request.Context(), code)
	if errors.Is(err, store.ErrTokenNotFound) {
		c.Header("WWW-Authenticate", `Bearer realm="tokenstore", error="invalid_token"`)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_token",
			"error_description": "token is invalid or revoked",
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active":      true,
		"client_id":   token.ClientID,
		"identity":    token.Identity,
		"scope":       token.Scope,
		"last_access": token.LastAccess,
		"prev_access": token.PrevAccess,
	})
}

func paramClientID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "client id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, key string, defaultValue int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, key+" must be an integer")
		return 0, false
	}
	return v, true
}

func tokensOrEmpty(tokens []models.AccessToken) []models.AccessToken {
	if tokens == nil {
		return []models.AccessToken{}
	}
	return tokens
}

func badRequest(c *gin.Context, description string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":             "invalid_request",
		"error_description": description,
	})
}

// respondError maps store errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidIdentity), errors.Is(err, store.ErrInvalidClient):
		badRequest(c, err.Error())
	case errors.Is(err, store.ErrTokenNotFound), errors.Is(err, store.ErrClientNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": err.Error(),
		})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "internal server error",
		})
	}
}
