package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Credentials is the slice of a member record the auth layer needs. The
// societies package owns the member model; an adapter in main bridges the
// two so neither package imports the other.
type Credentials struct {
	MemberID     uuid.UUID
	SocietyID    uuid.UUID
	Name         string
	Email        string
	Role         string
	PasswordHash string
}

type CredentialSource interface {
	FindCredentials(ctx context.Context, email string) (*Credentials, error)
}

// Claims carried in every portal token.
type Claims struct {
	MemberID  uuid.UUID `json:"member_id"`
	SocietyID uuid.UUID `json:"society_id"`
	Role      string    `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	source   CredentialSource
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewService(source CredentialSource, secret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	if tokenTTL == 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{source: source, secret: []byte(secret), tokenTTL: tokenTTL, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	MemberID  uuid.UUID `json:"member_id"`
	SocietyID uuid.UUID `json:"society_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	creds, err := s.source.FindCredentials(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	claims := Claims{
		MemberID:  creds.MemberID,
		SocietyID: creds.SocietyID,
		Role:      creds.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   creds.MemberID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("member logged in",
		zap.String("member_id", creds.MemberID.String()),
		zap.String("role", creds.Role))

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		MemberID:  creds.MemberID,
		SocietyID: creds.SocietyID,
		Name:      creds.Name,
		Role:      creds.Role,
	}, nil
}

// ParseToken validates a bearer token and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
