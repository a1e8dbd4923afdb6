package token

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"consultant-access/internal/domain/consultant"
	appErrors "consultant-access/pkg/errors"
	"consultant-access/pkg/secret"

	"github.com/google/uuid"
)

const DefaultTTL = 24 * time.Hour

// Issued holds a freshly minted setup token. Plain is handed to the user and
// never stored, Digest is what the repository keeps.
type Issued struct {
	Plain     string
	Digest    string
	ExpiresAt time.Time
}

// Issuer mints, validates and consumes single-use password setup tokens
type Issuer struct {
	repo    consultant.Repository
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func NewIssuer(repo consultant.Repository, ttl time.Duration, baseURL string) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{repo: repo, ttl: ttl, baseURL: baseURL, now: time.Now}
}

// WithClock replaces the time source, used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Issue() (Issued, error) {
	plain, err := secret.GenerateToken()
	if err != nil {
		return Issued{}, fmt.Errorf("failed to generate setup token: %w", err)
	}
	return Issued{
		Plain:     plain,
		Digest:    secret.DigestToken(plain),
		ExpiresAt: i.now().Add(i.ttl),
	}, nil
}

// Reissue replaces any outstanding token on the account with a new one.
func (i *Issuer) Reissue(ctx context.Context, id uuid.UUID) (Issued, error) {
	issued, err := i.Issue()
	if err != nil {
		return Issued{}, err
	}
	if err := i.repo.SetResetToken(ctx, id, issued.Digest, issued.ExpiresAt); err != nil {
		return Issued{}, err
	}
	return issued, nil
}

// Validate resolves a presented token to its active, unexpired account.
func (i *Issuer) Validate(ctx context.Context, plain string) (*consultant.Consultant, error) {
	if plain == "" {
		return nil, appErrors.ErrInvalidToken
	}

	c, err := i.repo.GetByResetTokenDigest(ctx, secret.DigestToken(plain))
	if errors.Is(err, consultant.ErrNotFound) {
		return nil, appErrors.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up setup token: %w", err)
	}

	if c.Status != consultant.StatusActive ||
		c.PasswordResetExpires == nil ||
		!c.PasswordResetExpires.After(i.now()) {
		return nil, appErrors.ErrInvalidToken
	}

	return c, nil
}

// Consume writes the new password hash and clears the token in one step.
// A second presentation of the same token fails.
func (i *Issuer) Consume(ctx context.Context, c *consultant.Consultant, plain, passwordHash string) error {
	err := i.repo.ConsumeResetToken(ctx, c.ID, secret.DigestToken(plain), passwordHash, i.now())
	if errors.Is(err, consultant.ErrResetTokenInvalid) {
		return appErrors.ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("failed to consume setup token: %w", err)
	}
	return nil
}

func (i *Issuer) SetupLink(plain string) string {
	return fmt.Sprintf("%s/set-password?token=%s", i.baseURL, url.QueryEscape(plain))
}
