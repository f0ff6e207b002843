// Package claim verifies that a person controls a restaurant before the
// restaurant is attached to their account. Ownership is proven by an email
// address on the restaurant's domain and a short code sent to it.
package claim

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/dcfoodblog/backend/internal/catalog"
)

var (
	ErrDomainMismatch = errors.New("email domain does not match restaurant domain")
	ErrNoDomain       = errors.New("restaurant has no domain on record")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrInvalidCode    = errors.New("invalid verification code")
	ErrExpired        = errors.New("verification code expired")
)

const (
	CodeLength = 6
	DefaultTTL = 24 * time.Hour
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Challenge is a pending ownership claim
type Challenge struct {
	RestaurantID string    `json:"restaurantId"`
	Email        string    `json:"email"`
	Code         string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Issue starts a claim for restaurant by the owner of email
func Issue(restaurant catalog.Restaurant, email string, now time.Time, ttl time.Duration) (Challenge, error) {
	emailDomain, err := EmailDomain(email)
	if err != nil {
		return Challenge{}, err
	}

	domain := RestaurantDomain(restaurant)
	if domain == "" {
		return Challenge{}, ErrNoDomain
	}
	if emailDomain != domain {
		return Challenge{}, fmt.Errorf("%w: %s is not %s", ErrDomainMismatch, emailDomain, domain)
	}

	code, err := NewCode()
	if err != nil {
		return Challenge{}, err
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Challenge{
		RestaurantID: restaurant.ID,
		Email:        strings.TrimSpace(email),
		Code:         code,
		ExpiresAt:    now.Add(ttl),
	}, nil
}

// Verify checks a submitted code against the challenge
func Verify(c Challenge, code string, now time.Time) error {
	if !now.Before(c.ExpiresAt) {
		return ErrExpired
	}
	if c.Code == "" || !strings.EqualFold(strings.TrimSpace(code), c.Code) {
		return ErrInvalidCode
	}
	return nil
}

// NewCode returns a random code of uppercase letters and digits
func NewCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// EmailDomain returns the lowercased domain part of an address
func EmailDomain(email string) (string, error) {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return strings.ToLower(email[at+1:]), nil
}

// RestaurantDomain is the restaurant's registered domain, falling back to its website host
func RestaurantDomain(r catalog.Restaurant) string {
	if d := strings.TrimSpace(r.Domain); d != "" {
		return strings.ToLower(strings.TrimPrefix(d, "www."))
	}
	site := strings.TrimSpace(r.SocialLinks.Website)
	if site == "" {
		return ""
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	u, err := url.Parse(site)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}
