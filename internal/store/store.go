package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/tokenserver/internal/core"
	"github.com/go-authgate/tokenserver/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	_ core.ClientStore   = (*Store)(nil)
	_ core.UserStore     = (*Store)(nil)
	_ core.TokenStore    = (*Store)(nil)
	_ core.AuthCodeStore = (*Store)(nil)
	_ core.MetricsStore  = (*Store)(nil)
)

// Token categories counted by CountActiveTokensByCategory
const (
	TokenCategoryAccess  = "access"
	TokenCategoryRefresh = "refresh"
)

type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Every connection to ":memory:" opens its own empty database
	if driver == "sqlite" && isMemoryDSN(dsn) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.AccessToken{},
		&models.RefreshToken{},
		&models.AuthCode{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// wrapNotFound maps GORM's not found error onto ErrRecordNotFound
func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

// User operations

// GetUserByUsername looks the user up by email, the password grant username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", username).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// Client operations

func (s *Store) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &client, nil
}

// GetPersonalAccessClient returns the most recently created, non-revoked
// personal access client.
func (s *Store) GetPersonalAccessClient(ctx context.Context) (*models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).
		Where("personal_access_client = ? AND revoked = ?", true, false).
		Order("created_at DESC").
		First(&client).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &client, nil
}

func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	return s.db.WithContext(ctx).Create(client).Error
}

func (s *Store) CountClients(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Client{}).Count(&count).Error
	return count, err
}

// RevokeClient flips the revoked flag; tokens already issued stay valid
// until they are revoked or expire.
func (s *Store) RevokeClient(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Update("revoked", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteClient removes the client together with its tokens and codes
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tokenIDs := tx.Model(&models.AccessToken{}).Select("id").Where("client_id = ?", id)
		if err := tx.Where("access_token_id IN (?)", tokenIDs).
			Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", id).Delete(&models.AccessToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", id).Delete(&models.AuthCode{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Client{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}

// Token operations

// CreateTokens writes the access token and, when present, its refresh token
// in one transaction.
func (s *Store) CreateTokens(
	ctx context.Context,
	access *models.AccessToken,
	refresh *models.RefreshToken,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createTokens(tx, access, refresh)
	})
}

func createTokens(tx *gorm.DB, access *models.AccessToken, refresh *models.RefreshToken) error {
	if access.ClientID == "" {
		return ErrClientRequired
	}
	if err := tx.Create(access).Error; err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}
	if refresh == nil {
		return nil
	}
	if err := tx.Create(refresh).Error; err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (s *Store) GetAccessToken(ctx context.Context, id string) (*models.AccessToken, error) {
	var t models.AccessToken
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

func (s *Store) GetRefreshToken(ctx context.Context, id string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

// GetRefreshTokenByAccessTokenID returns the refresh token paired with an access token
func (s *Store) GetRefreshTokenByAccessTokenID(
	ctx context.Context,
	accessTokenID string,
) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := s.db.WithContext(ctx).Where("access_token_id = ?", accessTokenID).First(&t).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

// RevokeAccessToken revokes the access token and its refresh token
func (s *Store) RevokeAccessToken(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.AccessToken{}).Where("id = ?", id).Update("revoked", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return tx.Model(&models.RefreshToken{}).
			Where("access_token_id = ?", id).
			Update("revoked", true).Error
	})
}

func (s *Store) RotateRefreshToken(
	ctx context.Context,
	refreshTokenID string,
	access *models.AccessToken,
	refresh *models.RefreshToken,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := tx.Where("id = ?", refreshTokenID).First(&old).Error; err != nil {
			return wrapNotFound(err)
		}

		result := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", refreshTokenID, false).
			Update("revoked", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyConsumed
		}

		if err := tx.Model(&models.AccessToken{}).
			Where("id = ?", old.AccessTokenID).
			Update("revoked", true).Error; err != nil {
			return err
		}

		return createTokens(tx, access, refresh)
	})
}

func (s *Store) CountAccessTokens(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.AccessToken{}).Count(&count).Error
	return count, err
}

// CountActiveTokensByCategory counts non-revoked, unexpired tokens of the
// given category ("access" or "refresh").
func (s *Store) CountActiveTokensByCategory(category string) (int64, error) {
	var model any
	switch category {
	case TokenCategoryAccess:
		model = &models.AccessToken{}
	case TokenCategoryRefresh:
		model = &models.RefreshToken{}
	default:
		return 0, fmt.Errorf("unknown token category: %s", category)
	}

	var count int64
	err := s.db.Model(model).
		Where("revoked = ? AND expires_at > ?", false, time.Now()).
		Count(&count).Error
	return count, err
}

// Authorization code operations

func (s *Store) CreateAuthCode(ctx context.Context, code *models.AuthCode) error {
	return s.db.WithContext(ctx).Create(code).Error
}

func (s *Store) GetAuthCode(ctx context.Context, id string) (*models.AuthCode, error) {
	var code models.AuthCode
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&code).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &code, nil
}

func (s *Store) ConsumeAuthCode(
	ctx context.Context,
	codeID string,
	access *models.AccessToken,
	refresh *models.RefreshToken,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.AuthCode{}).
			Where("id = ? AND revoked = ?", codeID, false).
			Update("revoked", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyConsumed
		}
		return createTokens(tx, access, refresh)
	})
}

// Maintenance

// PurgeExpiredTokens deletes expired refresh tokens, expired auth codes and
// expired access tokens that no live refresh token points at. It returns the
// number of rows removed.
func (s *Store) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("expires_at < ?", now).Delete(&models.RefreshToken{})
		if result.Error != nil {
			return result.Error
		}
		purged += result.RowsAffected

		liveRefresh := tx.Model(&models.RefreshToken{}).Select("access_token_id")
		result = tx.Where("expires_at < ? AND id NOT IN (?)", now, liveRefresh).
			Delete(&models.AccessToken{})
		if result.Error != nil {
			return result.Error
		}
		purged += result.RowsAffected

		result = tx.Where("expires_at < ?", now).Delete(&models.AuthCode{})
		if result.Error != nil {
			return result.Error
		}
		purged += result.RowsAffected
		return nil
	})
	return purged, err
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
