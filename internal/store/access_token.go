package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/tokenstore/internal/models"
	"github.com/go-authgate/tokenstore/internal/util"

	"gorm.io/gorm"
)

// Code lengths for the two issuance paths
const (
	IssueCodeLength = 20
	GrantCodeLength = 40
)

// DefaultHistoricalDays is the reporting window used when HistoricalFilter.Days is unset
const DefaultHistoricalDays = 60

const secondsPerDay = 86400

// HistoricalFilter narrows a HistoricalGrants report
type HistoricalFilter struct {
	Days     int   // Window size in days (default 60)
	ClientID *uint // Restrict to a single client when set
}

// IssueToken creates a token for client and scope that is not tied to an identity.
// Every call mints a new token, even for a client/scope pair that already has one.
func (s *Store) IssueToken(
	ctx context.Context,
	client *models.OAuthClient,
	scope string,
) (*models.AccessToken, error) {
	if client == nil {
		return nil, ErrInvalidClient
	}

	code, err := util.CryptoRandomString(IssueCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token code: %w", err)
	}

	token := &models.AccessToken{
		Code:      code,
		ClientID:  client.ID,
		Scope:     scope,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	return token, nil
}

// FindByCode returns the active token whose code matches. Revoked tokens are
// never returned.
func (s *Store) FindByCode(ctx context.Context, code string) (*models.AccessToken, error) {
	var t models.AccessToken
	err := s.db.WithContext(ctx).
		Where("code = ? AND revoked IS NULL", code).
		First(&t).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query access token: %w", err)
	}
	return &t, nil
}

// GetOrIssueToken returns the active token for (identity, client, scope),
// creating one if none exists. identity must be a string, an integer or a
// models.Identity; other types fail with ErrInvalidIdentity.
//
// An existing token is returned unchanged. Concurrent callers racing on the same
// key are serialized by the grant_key unique index: the loser re-reads the
// winner's row instead of creating a duplicate.
func (s *Store) GetOrIssueToken(
	ctx context.Context,
	identity any,
	client *models.OAuthClient,
	scope string,
) (*models.AccessToken, error) {
	id, err := models.ParseIdentity(identity)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrInvalidClient
	}

	existing, err := s.findActiveGrant(ctx, id, client.ID, scope)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrTokenNotFound) {
		return nil, err
	}

	code, err := util.CryptoRandomString(GrantCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token code: %w", err)
	}

	ident := id.String()
	key := models.GrantKey(id, client.ID, scope)
	token := &models.AccessToken{
		Code:      code,
		ClientID:  client.ID,
		Identity:  &ident,
		Scope:     scope,
		CreatedAt: s.now(),
		GrantKey:  &key,
	}

	err = s.db.WithContext(ctx).Create(token).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if winner, findErr := s.findActiveGrant(ctx, id, client.ID, scope); findErr == nil {
			return winner, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	return token, nil
}

func (s *Store) findActiveGrant(
	ctx context.Context,
	identity models.Identity,
	clientID uint,
	scope string,
) (*models.AccessToken, error) {
	var t models.AccessToken
	err := s.db.WithContext(ctx).
		Where("identity = ? AND client_id = ? AND scope = ? AND revoked IS NULL",
			identity.String(), clientID, scope).
		Order("id").
		First(&t).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query access token: %w", err)
	}
	return &t, nil
}

// TokensForIdentity returns every token issued for identity, revoked or not.
func (s *Store) TokensForIdentity(ctx context.Context, identity any) ([]models.AccessToken, error) {
	id, err := models.ParseIdentity(identity)
	if err != nil {
		return nil, err
	}

	var tokens []models.AccessToken
	if err := s.db.WithContext(ctx).
		Where("identity = ?", id.String()).
		Order("id").
		Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list tokens for identity: %w", err)
	}
	return tokens, nil
}

// TokensForClient returns a page of the client's tokens ordered by creation time.
// A negative offset defaults to 0 and a non-positive limit to 100.
func (s *Store) TokensForClient(
	ctx context.Context,
	clientID uint,
	offset, limit int,
) ([]models.AccessToken, error) {
	page := NewPageParams(offset, limit)

	var tokens []models.AccessToken
	if err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at ASC").
		Order("id ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list tokens for client: %w", err)
	}
	return tokens, nil
}

// HistoricalGrants counts tokens created per day over the last filter.Days days.
// Buckets are ordered by day and days without grants are omitted.
func (s *Store) HistoricalGrants(
	ctx context.Context,
	filter HistoricalFilter,
) ([]models.GrantBucket, error) {
	days := filter.Days
	if days <= 0 {
		days = DefaultHistoricalDays
	}

	now := s.now()
	since := now.AddDate(0, 0, -days)

	query := s.db.WithContext(ctx).
		Model(&models.AccessToken{}).
		Where("created_at BETWEEN ? AND ?", since, now)
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}

	var created []time.Time
	if err := query.Order("created_at").Pluck("created_at", &created).Error; err != nil {
		return nil, fmt.Errorf("failed to query historical grants: %w", err)
	}

	buckets := make([]models.GrantBucket, 0)
	for _, ts := range created {
		day := ts.Unix() / secondsPerDay
		if n := len(buckets); n > 0 && buckets[n-1].Day == day {
			buckets[n-1].Granted++
			continue
		}
		buckets = append(buckets, models.GrantBucket{Day: day, Granted: 1})
	}
	return buckets, nil
}

// RecordAccess stamps the token with the current hour. The write happens at most
// once per hour: when last_access is already at or past the current hour boundary
// nothing is written. The previous last_access moves to prev_access.
func (s *Store) RecordAccess(ctx context.Context, token *models.AccessToken) error {
	boundary := (s.now().Unix() / 3600) * 3600
	if token.LastAccess != nil && *token.LastAccess >= boundary {
		return nil
	}

	// compare-and-swap on the observed last_access so racing callers write once
	query := s.db.WithContext(ctx).
		Model(&models.AccessToken{}).
		Where("id = ?", token.ID)
	if token.LastAccess == nil {
		query = query.Where("last_access IS NULL")
	} else {
		query = query.Where("last_access = ?", *token.LastAccess)
	}

	if err := query.Updates(map[string]any{
		"last_access": boundary,
		"prev_access": token.LastAccess,
	}).Error; err != nil {
		return fmt.Errorf("failed to record token access: %w", err)
	}

	return s.reload(ctx, token)
}

// Revoke marks the token revoked as of now. Revoking an already revoked token
// moves the timestamp forward.
func (s *Store) Revoke(ctx context.Context, token *models.AccessToken) error {
	result := s.db.WithContext(ctx).
		Model(&models.AccessToken{}).
		Where("id = ?", token.ID).
		Updates(map[string]any{
			"revoked":   s.now(),
			"grant_key": nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke access token: %w", result.Error)
	}
	// Matched rows; MySQL DSNs carry clientFoundRows=true for this.
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}

	return s.reload(ctx, token)
}

// CountActiveTokens returns the number of tokens that have not been revoked
func (s *Store) CountActiveTokens(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.AccessToken{}).
		Where("revoked IS NULL").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active tokens: %w", err)
	}
	return count, nil
}

func (s *Store) reload(ctx context.Context, token *models.AccessToken) error {
	var fresh models.AccessToken
	err := s.db.WithContext(ctx).Where("id = ?", token.ID).First(&fresh).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to reload access token: %w", err)
	}
	*token = fresh
	return nil
}
