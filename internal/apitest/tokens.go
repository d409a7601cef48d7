package apitest

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// tokenIssuer mints HS256 access tokens and opaque refresh tokens the way the
// production backend does, so client code sees realistic credentials.
type tokenIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func newTokenIssuer(accessTTL time.Duration) *tokenIssuer {
	return &tokenIssuer{
		secret:    []byte("apitest-" + uuid.NewString()),
		accessTTL: accessTTL,
	}
}

func (i *tokenIssuer) issue(userID int64, now time.Time) (access, refresh string, err error) {
	c := claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}
	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", "", fmt.Errorf("signing access token: %w", err)
	}
	return access, uuid.NewString(), nil
}

func (i *tokenIssuer) validate(token string) (int64, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("parsing token: %w", err)
	}
	if !parsed.Valid || c.UserID <= 0 {
		return 0, errors.New("invalid token")
	}
	return c.UserID, nil
}
