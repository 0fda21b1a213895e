package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
)

const TokenTTL = 8 * time.Hour

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email, status string) (AuthUser, error)
	CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) error
	UpdateLastLogin(ctx context.Context, userID string) error
	RevokeSession(ctx context.Context, userID, refreshTokenHash string) error
	SessionValid(ctx context.Context, userID, refreshTokenHash string) (bool, error)
	RotateSession(ctx context.Context, userID, oldHash, newHash string, expires time.Time) error
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

type Service struct {
	Store  StoreAPI
	Secret string
	now    func() time.Time
}

func NewService(store StoreAPI, secret string) *Service {
	return &Service{Store: store, Secret: secret, now: time.Now}
}

// Login checks the credentials, opens a session and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, AuthUser, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, email, UserStatusActive)
	if err != nil {
		return "", AuthUser{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return "", AuthUser{}, ErrInvalidCredentials
	}

	sessionID, err := NewSessionID()
	if err != nil {
		return "", AuthUser{}, err
	}
	if err := s.Store.CreateSession(ctx, user.ID, HashToken(sessionID), s.now().Add(TokenTTL)); err != nil {
		return "", AuthUser{}, err
	}
	token, err := GenerateToken(s.Secret, Claims{
		UserID:    user.ID,
		TenantID:  user.TenantID,
		RoleID:    user.RoleID,
		RoleName:  user.RoleName,
		SessionID: sessionID,
	}, TokenTTL)
	if err != nil {
		return "", AuthUser{}, err
	}
	return token, user, nil
}

func (s *Service) Logout(ctx context.Context, user UserContext) error {
	if user.SessionID == "" {
		return nil
	}
	return s.Store.RevokeSession(ctx, user.UserID, HashToken(user.SessionID))
}

// Refresh rotates the session behind a still-valid token.
func (s *Service) Refresh(ctx context.Context, tokenString string) (string, error) {
	claims, err := ParseToken(s.Secret, tokenString)
	if err != nil {
		return "", ErrSessionExpired
	}
	ok, err := s.Store.SessionValid(ctx, claims.UserID, HashToken(claims.SessionID))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrSessionExpired
	}

	next, err := NewSessionID()
	if err != nil {
		return "", err
	}
	if err := s.Store.RotateSession(ctx, claims.UserID, HashToken(claims.SessionID), HashToken(next), s.now().Add(TokenTTL)); err != nil {
		return "", err
	}
	rotated := *claims
	rotated.SessionID = next
	return GenerateToken(s.Secret, rotated, TokenTTL)
}

func (s *Service) UpdateLastLogin(ctx context.Context, userID string) error {
	return s.Store.UpdateLastLogin(ctx, userID)
}

func (s *Service) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return s.Store.HasPermission(ctx, roleID, permission)
}
