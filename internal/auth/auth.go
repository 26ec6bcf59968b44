package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/robalyx/tribunal/internal/setup/config"
)

var (
	ErrMissingSecret = errors.New("jwt secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingUserID = errors.New("token has no user id")
)

// Staff is the identity of an authenticated staff member.
type Staff struct {
	UserID         string
	DisplayName    string
	Email          string
	AuthorityLevel int
}

// Name returns the display name, falling back to the user ID.
func (s *Staff) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.UserID
}

// Claims are the JWT claims carried by staff tokens.
type Claims struct {
	UserID         string `json:"userId"`
	DisplayName    string `json:"displayName"`
	Email          string `json:"email"`
	AuthorityLevel int    `json:"authorityLevel"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 staff tokens.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
}

// NewService creates a token service from the auth configuration.
func NewService(cfg *config.Auth) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Service{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.TokenTTL) * time.Minute,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Issue signs a token for the staff member. A zero ttl uses the configured lifetime.
func (s *Service) Issue(staff *Staff, ttl time.Duration) (string, error) {
	if staff.UserID == "" {
		return "", ErrMissingUserID
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := time.Now()
	claims := Claims{
		UserID:         staff.UserID,
		DisplayName:    staff.DisplayName,
		Email:          staff.Email,
		AuthorityLevel: staff.AuthorityLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   staff.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w (userID=%s)", err, staff.UserID)
	}

	return token, nil
}

// Verify parses a token and returns the staff identity it carries.
func (s *Service) Verify(tokenString string) (*Staff, error) {
	var claims Claims
	token, err := s.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}

	return &Staff{
		UserID:         claims.UserID,
		DisplayName:    claims.DisplayName,
		Email:          claims.Email,
		AuthorityLevel: claims.AuthorityLevel,
	}, nil
}

type contextKey struct{}

// WithStaff stores the staff identity in the context.
func WithStaff(ctx context.Context, staff *Staff) context.Context {
	return context.WithValue(ctx, contextKey{}, staff)
}

// StaffFromContext returns the staff identity stored in the context, if any.
func StaffFromContext(ctx context.Context) (*Staff, bool) {
	staff, ok := ctx.Value(contextKey{}).(*Staff)
	return staff, ok && staff != nil
}
