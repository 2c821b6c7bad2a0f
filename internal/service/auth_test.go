package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"userhub/internal/config"
	"userhub/internal/model"
)

type mockRefreshTokenRepository struct {
	createFn          func(ctx context.Context, token *model.RefreshToken) error
	findByTokenHashFn func(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	deleteExpiredFn   func(ctx context.Context, olderThan time.Duration) (int64, error)

	revokedIDs       []string
	revokeAllUserIDs []int64
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	token.ID = "stored-token-id"
	return nil
}

func (m *mockRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	if m.findByTokenHashFn != nil {
		return m.findByTokenHashFn(ctx, tokenHash)
	}
	return nil, model.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	m.revokedIDs = append(m.revokedIDs, id)
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.revokeAllUserIDs = append(m.revokeAllUserIDs, userID)
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, olderThan)
	}
	return 0, nil
}

func newTestAuthService(repo *mockRefreshTokenRepository) *AuthService {
	return NewAuthService(repo, &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMaxAge:  900,
		RefreshTokenMaxAge: 3600,
	})
}

func TestAuthService_GenerateTokenPair_StoresHashOnly(t *testing.T) {
	var stored *model.RefreshToken
	repo := &mockRefreshTokenRepository{
		createFn: func(ctx context.Context, token *model.RefreshToken) error {
			stored = token
			return nil
		},
	}
	svc := newTestAuthService(repo)

	pair, err := svc.GenerateTokenPair(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	if stored == nil {
		t.Fatal("refresh token was not persisted")
	}
	// The raw token must never reach the store
	if stored.TokenHash == pair.RefreshToken {
		t.Error("refresh token stored in plain text")
	}
	if stored.TokenHash != svc.hashToken(pair.RefreshToken) {
		t.Error("stored hash does not match the issued token")
	}
}

func TestAuthService_RefreshTokens_ReuseRevokesFamily(t *testing.T) {
	revokedAt := time.Now().Add(-time.Minute)
	repo := &mockRefreshTokenRepository{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			return &model.RefreshToken{
				ID:        "old-id",
				UserID:    42,
				ExpiresAt: time.Now().Add(time.Hour),
				RevokedAt: &revokedAt,
			}, nil
		},
	}
	svc := newTestAuthService(repo)

	_, _, err := svc.RefreshTokens(context.Background(), "reused-token")
	if !errors.Is(err, model.ErrRefreshTokenReused) {
		t.Errorf("error = %v, want %v", err, model.ErrRefreshTokenReused)
	}
	if len(repo.revokeAllUserIDs) != 1 || repo.revokeAllUserIDs[0] != 42 {
		t.Errorf("revoked users = %v, want the whole family for user 42", repo.revokeAllUserIDs)
	}
}

func TestAuthService_RefreshTokens_Expired(t *testing.T) {
	repo := &mockRefreshTokenRepository{
		findByTokenHashFn: func(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
			return &model.RefreshToken{
				ID:        "old-id",
				UserID:    42,
				ExpiresAt: time.Now().Add(-time.Hour),
			}, nil
		},
	}
	svc := newTestAuthService(repo)

	_, _, err := svc.RefreshTokens(context.Background(), "expired-token")
	if !errors.Is(err, model.ErrRefreshTokenExpired) {
		t.Errorf("error = %v, want %v", err, model.ErrRefreshTokenExpired)
	}
}

func TestAuthService_PurgeExpiredTokens(t *testing.T) {
	var gotOlderThan time.Duration
	repo := &mockRefreshTokenRepository{
		deleteExpiredFn: func(ctx context.Context, olderThan time.Duration) (int64, error) {
			gotOlderThan = olderThan
			return 5, nil
		},
	}
	svc := newTestAuthService(repo)

	deleted, err := svc.PurgeExpiredTokens(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 5 {
		t.Errorf("deleted = %d, want 5", deleted)
	}
	if gotOlderThan != 24*time.Hour {
		t.Errorf("olderThan = %v, want 24h", gotOlderThan)
	}
}

func TestAuthService_PurgeExpiredTokens_Error(t *testing.T) {
	repoErr := errors.New("connection lost")
	repo := &mockRefreshTokenRepository{
		deleteExpiredFn: func(ctx context.Context, olderThan time.Duration) (int64, error) {
			return 0, repoErr
		},
	}
	svc := newTestAuthService(repo)

	if _, err := svc.PurgeExpiredTokens(context.Background(), 24*time.Hour); !errors.Is(err, repoErr) {
		t.Errorf("error = %v, want wrapped %v", err, repoErr)
	}
}
