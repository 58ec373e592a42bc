package security

import (
	"context"
	"errors"
	"sync"
	"time"

	"plant-shop/internal/auth/config"
	"plant-shop/internal/auth/domain/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid          = errors.New("token is invalid")
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrStateMismatch         = errors.New("state was issued for another provider")
	ErrStateReused           = errors.New("state has already been used")
)

const stateAudience = "federated-state"

var _ repository.TokenService = (*JWTokenService)(nil)

// JWTokenService implements JWT token generation and validation
type JWTokenService struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	stateTTL  time.Duration

	// ids of states already redeemed, kept until they would have expired anyway
	mu         sync.Mutex
	usedStates map[string]time.Time
}

// NewJWTokenService creates a new JWT token service
func NewJWTokenService(cfg *config.Config) (*JWTokenService, error) {
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("jwt secret key cannot be empty")
	}
	if cfg.JWTIssuer == "" {
		return nil, errors.New("jwt issuer cannot be empty")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, errors.New("jwt access token TTL must be positive")
	}
	stateTTL := cfg.StateTokenTTL
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}

	return &JWTokenService{
		secretKey:  []byte(cfg.JWTSecretKey),
		issuer:     cfg.JWTIssuer,
		ttl:        cfg.AccessTokenTTL,
		stateTTL:   stateTTL,
		usedStates: make(map[string]time.Time),
	}, nil
}

// GenerateToken generates a new JWT token for the given user
func (s *JWTokenService) GenerateToken(ctx context.Context, userID, email string) (string, error) {
	now := time.Now()
	claims := &repository.Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken validates a JWT token and returns the claims
func (s *JWTokenService) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	claims := &repository.Claims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	// state tokens share the key; never accept one as a session
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// GenerateState returns a short-lived token carried through the provider redirect.
func (s *JWTokenService) GenerateState(ctx context.Context, provider string) (string, error) {
	now := time.Now()
	claims := &repository.StateClaims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{stateAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.stateTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
}

// ValidateState checks the signature, expiry and provider of a returned state
// and redeems it; a state is accepted once per service instance.
func (s *JWTokenService) ValidateState(ctx context.Context, state, provider string) error {
	if state == "" {
		return ErrTokenInvalid
	}
	claims := &repository.StateClaims{}
	if err := s.parse(state, claims, jwt.WithAudience(stateAudience)); err != nil {
		return err
	}
	if claims.Provider != provider {
		return ErrStateMismatch
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return ErrTokenInvalid
	}
	return s.redeemState(claims.ID, claims.ExpiresAt.Time)
}

func (s *JWTokenService) redeemState(id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for used, until := range s.usedStates {
		if now.After(until) {
			delete(s.usedStates, used)
		}
	}
	if _, seen := s.usedStates[id]; seen {
		return ErrStateReused
	}
	s.usedStates[id] = expiresAt
	return nil
}

func (s *JWTokenService) parse(tokenString string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	opts = append(opts, jwt.WithIssuer(s.issuer))
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignatureInvalid
		}
		return s.secretKey, nil
	}, opts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ErrTokenSignatureInvalid
		default:
			return ErrTokenInvalid
		}
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
