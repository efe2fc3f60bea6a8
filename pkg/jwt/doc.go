// Package jwt signs and verifies HMAC JSON Web Tokens for the storefront API.
//
// # Signing
//
// A Signer is built once from the configured secret and algorithm:
//
//	signer, err := jwt.NewSigner(jwt.Config{
//	    Secret:    "s3cret",
//	    Algorithm: jwt.HS256,
//	    Issuer:    "storefront",
//	})
//
//	token, err := signer.Sign(map[string]any{"email": "a@b.com"})
//
// The signer adds iat, plus iss and exp when an issuer and expiration are
// configured. Claims are serialized with sorted keys, so signing the same
// claims at the same instant yields the same token.
//
// # Secrets
//
// A secret prefixed with "base64:" is decoded before use, which allows binary
// key material in environment variables. A secret that fails to decode is
// reported as ErrInvalidKey.
//
// # Verification
//
//	claims, err := signer.Verify(token)
//	if errors.Is(err, jwt.ErrTokenExpired) {
//	    // ask the caller for a new token
//	}
package jwt
