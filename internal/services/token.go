package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-authgate/tokenstore/internal/logger"
	"github.com/go-authgate/tokenstore/internal/metrics"
	"github.com/go-authgate/tokenstore/internal/models"
	"github.com/go-authgate/tokenstore/internal/store"
)

// Grant types reported to metrics
const (
	GrantTypeClient   = "client"
	GrantTypeIdentity = "identity"
)

// Token lookup results reported to metrics
const (
	lookupValid   = "valid"
	lookupInvalid = "invalid"
	lookupError   = "error"
)

type TokenService struct {
	store          *store.Store
	metrics        metrics.Recorder
	historicalDays int
}

func NewTokenService(s *store.Store, m metrics.Recorder, historicalDays int) *TokenService {
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	if historicalDays <= 0 {
		historicalDays = store.DefaultHistoricalDays
	}
	return &TokenService{
		store:          s,
		metrics:        m,
		historicalDays: historicalDays,
	}
}

// IssueToken mints a token for the client that is not bound to an identity
func (s *TokenService) IssueToken(
	ctx context.Context,
	clientID uint,
	scope string,
) (*models.AccessToken, error) {
	start := time.Now()

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	token, err := s.store.IssueToken(ctx, client, scope)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTokenGranted(GrantTypeClient, time.Since(start))
	logger.Info().
		Uint("token_id", token.ID).
		Uint("client_id", client.ID).
		Str("scope", scope).
		Msg("access token issued")
	return token, nil
}

// GetOrIssueToken returns the active token for (identity, client, scope), minting one if needed
func (s *TokenService) GetOrIssueToken(
	ctx context.Context,
	identity any,
	clientID uint,
	scope string,
) (*models.AccessToken, error) {
	start := time.Now()

	if _, err := models.ParseIdentity(identity); err != nil {
		return nil, err
	}

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	token, err := s.store.GetOrIssueToken(ctx, identity, client, scope)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTokenGranted(GrantTypeIdentity, time.Since(start))
	logger.Debug().
		Uint("token_id", token.ID).
		Uint("client_id", client.ID).
		Str("scope", scope).
		Msg("access token granted")
	return token, nil
}

// Authenticate resolves a bearer code to its active token and stamps its hourly access.
func (s *TokenService) Authenticate(ctx context.Context, code string) (*models.AccessToken, error) {
	start := time.Now()

	token, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			s.metrics.RecordTokenLookup(lookupInvalid, time.Since(start))
		} else {
			s.metrics.RecordTokenLookup(lookupError, time.Since(start))
			s.metrics.RecordDatabaseQueryError("find_token")
		}
		return nil, err
	}
	s.metrics.RecordTokenLookup(lookupValid, time.Since(start))

	previous := token.LastAccess
	if err := s.store.RecordAccess(ctx, token); err != nil {
		s.metrics.RecordDatabaseQueryError("record_access")
		return nil, err
	}
	s.metrics.RecordTokenAccess(accessWritten(previous, token.LastAccess))

	return token, nil
}

func accessWritten(before, after *int64) bool {
	if after == nil {
		return false
	}
	return before == nil || *before != *after
}

// RevokeByCode revokes the active token with the given code
func (s *TokenService) RevokeByCode(ctx context.Context, code string) (*models.AccessToken, error) {
	token, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.Revoke(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Revoke revokes the given token
func (s *TokenService) Revoke(ctx context.Context, token *models.AccessToken) error {
	if err := s.store.Revoke(ctx, token); err != nil {
		return err
	}

	s.metrics.RecordTokenRevoked()
	logger.Info().
		Uint("token_id", token.ID).
		Uint("client_id", token.ClientID).
		Msg("access token revoked")
	return nil
}

// TokensForIdentity lists every token issued for identity
func (s *TokenService) TokensForIdentity(
	ctx context.Context,
	identity any,
) ([]models.AccessToken, error) {
	return s.store.TokensForIdentity(ctx, identity)
}

// TokensForClient lists a page of the client's tokens in creation order
func (s *TokenService) TokensForClient(
	ctx context.Context,
	clientID uint,
	offset, limit int,
) ([]models.AccessToken, error) {
	return s.store.TokensForClient(ctx, clientID, offset, limit)
}

// HistoricalGrants reports per-day grant counts. days <= 0 uses the configured window.
func (s *TokenService) HistoricalGrants(
	ctx context.Context,
	days int,
	clientID *uint,
) ([]models.GrantBucket, error) {
	if days <= 0 {
		days = s.historicalDays
	}
	return s.store.HistoricalGrants(ctx, store.HistoricalFilter{
		Days:     days,
		ClientID: clientID,
	})
}

// RefreshActiveTokensGauge updates the active tokens gauge from the database
func (s *TokenService) RefreshActiveTokensGauge(ctx context.Context) error {
	count, err := s.store.CountActiveTokens(ctx)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("count_active_tokens")
		return err
	}
	s.metrics.SetActiveTokensCount(int(count))
	return nil
}
