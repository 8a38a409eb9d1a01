package service

import (
	"context"

	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/pkg/apperror"
	"clinic-scheduling/pkg/jwt"

	"github.com/sirupsen/logrus"
)

// ErrInvalidIdentity is the single error for every way a token can fail.
var ErrInvalidIdentity = apperror.New(apperror.KindUnauthorized, "Unauthorized")

type IdentityService interface {
	Resolve(ctx context.Context, token string) (*entity.Claims, error)
}

type identityService struct {
	log        *logrus.Logger
	jwtService *jwt.JWTService
	tokens     TokenStore
}

func NewIdentityService(log *logrus.Logger, jwtService *jwt.JWTService, tokens TokenStore) IdentityService {
	return &identityService{
		log:        log,
		jwtService: jwtService,
		tokens:     tokens,
	}
}

// Resolve validates an access token and returns the caller's claims.
func (s *identityService) Resolve(ctx context.Context, token string) (*entity.Claims, error) {
	parsed, err := s.jwtService.ValidateToken(token)
	if err != nil {
		s.log.Debugf("Rejected token: %v", err)
		return nil, ErrInvalidIdentity
	}

	if parsed.TokenType != jwt.AccessToken {
		return nil, ErrInvalidIdentity
	}

	role, ok := entity.ParseUserRole(parsed.Role)
	if !ok {
		return nil, ErrInvalidIdentity
	}

	exists, err := s.tokens.Exists(ctx, parsed.UserID, parsed.TokenID)
	if err != nil {
		s.log.Warnf("Failed to check token revocation: %+v", err)
		return nil, ErrInvalidIdentity
	}
	if !exists {
		return nil, ErrInvalidIdentity
	}

	claims := &entity.Claims{
		UserID:  parsed.UserID,
		Email:   parsed.Email,
		Role:    role,
		TokenID: parsed.TokenID,
	}
	if !claims.Valid() {
		return nil, ErrInvalidIdentity
	}
	return claims, nil
}
