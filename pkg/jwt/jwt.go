package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims carried by a bearer session token.
type Claims struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      string    `json:"role"`
	Username  string    `json:"username"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 session tokens.
type Codec struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

func NewCodec(secret, issuer string, expiry time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Sign issues a token for the given subject and returns it with its expiry.
func (c *Codec) Sign(accountID uuid.UUID, role, username string) (string, time.Time, error) {
	issuedAt := c.now()
	expiresAt := issuedAt.Add(c.expiry)

	claims := Claims{
		AccountID: accountID,
		Role:      role,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Issuer:    c.issuer,
			Subject:   accountID.String(),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies signature and expiry. Expired tokens return ErrTokenExpired.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return c.secret, nil
	},
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AccountID == uuid.Nil {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
