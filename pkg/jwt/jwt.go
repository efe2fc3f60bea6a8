package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrInvalidKey           = errors.New("invalid key")
	ErrEncoding             = errors.New("claims encoding failed")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// Algorithm names an HMAC signing algorithm.
type Algorithm string

const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
)

// base64Prefix marks a secret holding base64 encoded key material.
const base64Prefix = "base64:"

// Method returns the signing method for the algorithm.
func (a Algorithm) Method() (gojwt.SigningMethod, error) {
	switch Algorithm(strings.ToUpper(string(a))) {
	case HS256, "":
		return gojwt.SigningMethodHS256, nil
	case HS384:
		return gojwt.SigningMethodHS384, nil
	case HS512:
		return gojwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
	}
}

// Config holds signer configuration
type Config struct {
	Secret     string
	Algorithm  Algorithm     // Default HS256
	Issuer     string        // Optional; set as iss and required on verify
	Expiration time.Duration // Zero means tokens carry no exp
	Now        func() time.Time
}

// Signer signs and verifies tokens with a single symmetric key.
type Signer struct {
	key        []byte
	method     gojwt.SigningMethod
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewSigner validates the configuration and decodes the secret.
func NewSigner(cfg Config) (*Signer, error) {
	method, err := cfg.Algorithm.Method()
	if err != nil {
		return nil, err
	}

	key, err := DecodeSecret(cfg.Secret)
	if err != nil {
		return nil, err
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Signer{
		key:        key,
		method:     method,
		issuer:     cfg.Issuer,
		expiration: cfg.Expiration,
		now:        cfg.Now,
	}, nil
}

// DecodeSecret turns the configured secret into key bytes.
func DecodeSecret(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: empty secret", ErrInvalidKey)
	}
	if !strings.HasPrefix(secret, base64Prefix) {
		return []byte(secret), nil
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, base64Prefix))
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not valid base64", ErrInvalidKey)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrInvalidKey)
	}
	return key, nil
}

// Algorithm returns the JWS alg header value used by the signer.
func (s *Signer) Algorithm() string {
	return s.method.Alg()
}

// Sign creates a signed token carrying claims plus iat, iss and exp.
// The claims map is not modified.
func (s *Signer) Sign(claims map[string]any) (string, error) {
	now := s.now()

	mc := make(gojwt.MapClaims, len(claims)+3)
	for k, v := range claims {
		mc[k] = v
	}
	mc["iat"] = now.Unix()
	if s.issuer != "" {
		mc["iss"] = s.issuer
	}
	if s.expiration > 0 {
		mc["exp"] = now.Add(s.expiration).Unix()
	}

	signed, err := gojwt.NewWithClaims(s.method, mc).SignedString(s.key)
	if err != nil {
		if errors.Is(err, gojwt.ErrInvalidKey) || errors.Is(err, gojwt.ErrInvalidKeyType) {
			return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm, expiry and issuer of a token and
// returns its claims.
func (s *Signer) Verify(tokenString string) (map[string]any, error) {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.method.Alg()}),
		gojwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	token, err := gojwt.NewParser(opts...).Parse(tokenString, func(t *gojwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gojwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return map[string]any(claims), nil
}
