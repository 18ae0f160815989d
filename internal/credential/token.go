package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "refeera/pkg/domain-errors"
	authmw "refeera/pkg/platform/middleware/auth"
	"refeera/pkg/requestcontext"
)

// Claims are the JWT claims of a bearer token. The audience names the
// principal kind and the subject is the account id.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 bearer tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        map[requestcontext.PrincipalKind]time.Duration
	now        func() time.Time
}

func NewTokenService(signingKey, issuer string, userTTL, businessTTL time.Duration) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl: map[requestcontext.PrincipalKind]time.Duration{
			requestcontext.PrincipalUser:     userTTL,
			requestcontext.PrincipalBusiness: businessTTL,
		},
		now: time.Now,
	}
}

// Issue signs a token for the given principal.
func (s *TokenService) Issue(kind requestcontext.PrincipalKind, subject string) (string, error) {
	ttl, ok := s.ttl[kind]
	if !ok {
		return "", fmt.Errorf("unknown principal kind %q", kind)
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{string(kind)},
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken satisfies the auth middleware's TokenValidator.
func (s *TokenService) ValidateToken(tokenString string) (*authmw.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Token expired. Please log in again.")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid token format or signature")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || len(claims.Audience) != 1 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid token format or signature")
	}
	kind := requestcontext.PrincipalKind(claims.Audience[0])
	if _, known := s.ttl[kind]; !known {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid token format or signature")
	}
	return &authmw.Claims{Subject: claims.Subject, Kind: kind}, nil
}
