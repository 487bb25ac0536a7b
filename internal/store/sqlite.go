package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/tokenstore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the persistence layer for access tokens and the clients they are bound to.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New opens a database connection for the given driver and migrates the schema.
func New(ctx context.Context, driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := configureDB(db, driver); err != nil {
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return NewWithDB(ctx, db)
}

// NewWithDB wraps an existing connection. The connection should be opened with
// gorm.Config.TranslateError so duplicate keys surface as gorm.ErrDuplicatedKey.
func NewWithDB(ctx context.Context, db *gorm.DB) (*Store, error) {
	if err := db.WithContext(ctx).AutoMigrate(
		&models.OAuthClient{},
		&models.AccessToken{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OAuth Client operations

// CreateClient persists a new client
func (s *Store) CreateClient(ctx context.Context, client *models.OAuthClient) error {
	if client.CreatedAt.IsZero() {
		client.CreatedAt = s.now()
	}
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetClient finds a client by primary key
func (s *Store) GetClient(ctx context.Context, id uint) (*models.OAuthClient, error) {
	var client models.OAuthClient
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query client: %w", err)
	}
	return &client, nil
}

// ListClients returns all clients, newest first
func (s *Store) ListClients(ctx context.Context) ([]models.OAuthClient, error) {
	var clients []models.OAuthClient
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}
