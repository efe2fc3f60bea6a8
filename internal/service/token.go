package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/forgo/storefront/api/internal/metrics"
	"github.com/forgo/storefront/api/pkg/jwt"
)

// Issuance results recorded in metrics.
const (
	resultOK             = "ok"
	resultConfiguration  = "configuration"
	resultInvalidPayload = "invalid_payload"
	resultSigning        = "signing"
)

// DefaultRequiredClaims is used when TokenServiceConfig.RequiredClaims is nil.
var DefaultRequiredClaims = []string{"email"}

// reservedClaims are set by the signer and may not come from callers.
var reservedClaims = map[string]bool{
	"iat": true,
	"exp": true,
	"nbf": true,
	"iss": true,
}

// Claims is the caller-supplied credential payload.
type Claims map[string]any

// ParseClaims decodes a JSON object into Claims. Anything other than an
// object, including null, is ErrInvalidPayload.
func ParseClaims(raw []byte) (Claims, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: payload must be a JSON object", ErrInvalidPayload)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var claims Claims
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidPayload)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidPayload)
	}
	return claims, nil
}

// Validate checks that the claims can be signed. All failures wrap
// ErrInvalidPayload.
func (c Claims) Validate(required []string) error {
	if len(c) == 0 {
		return fmt.Errorf("%w: payload must be a non-empty object", ErrInvalidPayload)
	}

	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: claim names must not be blank", ErrInvalidPayload)
		}
		if reservedClaims[name] {
			return fmt.Errorf("%w: claim %q is set by the server", ErrInvalidPayload, name)
		}
	}

	for _, name := range required {
		v, ok := c[name]
		if !ok || v == nil {
			return fmt.Errorf("%w: missing required claim %q", ErrInvalidPayload, name)
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: claim %q must not be empty", ErrInvalidPayload, name)
		}
	}
	return nil
}

// TokenSigner signs and verifies tokens. *jwt.Signer implements it.
type TokenSigner interface {
	Sign(claims map[string]any) (string, error)
	Verify(token string) (map[string]any, error)
}

// TokenServiceConfig holds configuration for the token service
type TokenServiceConfig struct {
	Secret         string
	Algorithm      string        // HS256 (default), HS384 or HS512
	Issuer         string        // Optional iss claim
	Expiration     time.Duration // Zero issues tokens without exp
	RequiredClaims []string      // nil means DefaultRequiredClaims; empty requires none
	Metrics        *metrics.Metrics
	Now            func() time.Time

	// Signer replaces the signer built from Secret and Algorithm.
	Signer TokenSigner
}

// TokenService issues and verifies signed tokens. It holds no per-call state
// and is safe for concurrent use.
type TokenService struct {
	secret    string
	required  []string
	metrics   *metrics.Metrics
	signer    TokenSigner
	signerErr error
}

// NewTokenService creates a new token service. Configuration problems are
// not returned here; they surface from every Issue call instead.
func NewTokenService(cfg TokenServiceConfig) *TokenService {
	if cfg.RequiredClaims == nil {
		cfg.RequiredClaims = DefaultRequiredClaims
	}

	s := &TokenService{
		secret:   cfg.Secret,
		required: cfg.RequiredClaims,
		metrics:  cfg.Metrics,
		signer:   cfg.Signer,
	}

	if s.signer == nil && s.configured() {
		signer, err := jwt.NewSigner(jwt.Config{
			Secret:     cfg.Secret,
			Algorithm:  jwt.Algorithm(cfg.Algorithm),
			Issuer:     cfg.Issuer,
			Expiration: cfg.Expiration,
			Now:        cfg.Now,
		})
		if err != nil {
			s.signerErr = err
		} else {
			s.signer = signer
		}
	}
	return s
}

func (s *TokenService) configured() bool {
	return strings.TrimSpace(s.secret) != ""
}

// Issue signs claims and returns the compact token.
//
// The secret is checked before the payload, so a misconfigured service
// reports ErrTokenConfiguration for every request.
func (s *TokenService) Issue(claims Claims) (string, error) {
	if err := s.Ready(); err != nil {
		return "", s.record(err)
	}
	if err := claims.Validate(s.required); err != nil {
		return "", s.record(err)
	}

	token, err := s.signer.Sign(claims)
	if err != nil {
		return "", s.record(fmt.Errorf("%w: %w", ErrSigning, err))
	}

	s.metrics.TokenIssued(resultOK)
	return token, nil
}

// IssueJSON decodes a raw JSON payload and issues a token for it. The
// configuration check still runs first.
func (s *TokenService) IssueJSON(raw []byte) (string, error) {
	if err := s.Ready(); err != nil {
		return "", s.record(err)
	}
	claims, err := ParseClaims(raw)
	if err != nil {
		return "", s.record(err)
	}
	return s.Issue(claims)
}

// CheckIssue runs the configuration check of Issue without a payload. A
// failure is counted as a refused issue, the same as from Issue.
func (s *TokenService) CheckIssue() error {
	if err := s.Ready(); err != nil {
		return s.record(err)
	}
	return nil
}

// Verify checks a token issued by this service and returns its claims.
func (s *TokenService) Verify(token string) (Claims, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return Claims(claims), nil
}

// Ready reports whether tokens can be issued: ErrTokenConfiguration when the
// secret or algorithm is unusable, ErrSigning when the key cannot be decoded.
func (s *TokenService) Ready() error {
	if !s.configured() {
		return fmt.Errorf("%w: TOKEN_SECRET is empty", ErrTokenConfiguration)
	}
	if s.signerErr != nil {
		if errors.Is(s.signerErr, jwt.ErrUnsupportedAlgorithm) {
			return fmt.Errorf("%w: %w", ErrTokenConfiguration, s.signerErr)
		}
		return fmt.Errorf("%w: %w", ErrSigning, s.signerErr)
	}
	return nil
}

func (s *TokenService) record(err error) error {
	switch {
	case errors.Is(err, ErrTokenConfiguration):
		s.metrics.TokenIssued(resultConfiguration)
	case errors.Is(err, ErrInvalidPayload):
		s.metrics.TokenIssued(resultInvalidPayload)
	default:
		s.metrics.TokenIssued(resultSigning)
	}
	return err
}
