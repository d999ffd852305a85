package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultCookieName = "todolists_session"
	DefaultMaxAge     = 365 * 24 * time.Hour

	// Browsers drop cookies whose name=value exceeds this.
	maxCookieBytes = 4093
)

var ErrTooLarge = errors.New("session: encoded session exceeds cookie size limit")

type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func (o CookieOptions) withDefaults() CookieOptions {
	o.Name = strings.TrimSpace(o.Name)
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.MaxAge <= 0 {
		o.MaxAge = DefaultMaxAge
	}
	return o
}

func (o CookieOptions) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(o.MaxAge / time.Second),
		Expires:  time.Now().Add(o.MaxAge).UTC(),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieBackend stores the whole session, signed, in the cookie itself.
type CookieBackend struct {
	secret []byte
	opts   CookieOptions
}

func NewCookieBackend(secret []byte, opts CookieOptions) (*CookieBackend, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: empty secret")
	}
	return &CookieBackend{secret: secret, opts: opts.withDefaults()}, nil
}

func (b *CookieBackend) Load(_ context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(b.opts.Name)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return New(), nil
	}
	return DecodeCookie(b.secret, c.Value)
}

func (b *CookieBackend) Save(_ context.Context, w http.ResponseWriter, s *Session) error {
	value, err := EncodeCookie(b.secret, s, b.opts.MaxAge)
	if err != nil {
		return err
	}
	if len(b.opts.Name)+1+len(value) > maxCookieBytes {
		return ErrTooLarge
	}
	http.SetCookie(w, b.opts.cookie(value))
	return nil
}

func (b *CookieBackend) Close() error { return nil }

func EncodeCookie(secret []byte, s *Session, ttl time.Duration) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("session: encode: %w", err)
	}
	return signToken(secret, signedPayload{
		Typ:  typState,
		Exp:  time.Now().Add(ttl).Unix(),
		Data: data,
	})
}

// DecodeCookie verifies a cookie-backend value and returns the session it carries.
func DecodeCookie(secret []byte, value string) (*Session, error) {
	sp, err := verifyToken(secret, value, typState)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	s := New()
	if err := json.Unmarshal(sp.Data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if s.Lists == nil {
		s.Lists = New().Lists
	}
	return s, nil
}
