package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
)

// Signer is our interface for anything that can sign token claims.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a token and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256Signer signs claims with an HMAC-SHA256 shared secret. Access and
// refresh tokens use distinct secrets so that compromise of one cannot
// forge the other kind.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 creates an HS256 signer from a shared secret.
func NewSignerHS256(secret []byte) *HS256Signer {
	return &HS256Signer{secret: secret}
}

func (s *HS256Signer) Sign(c Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// HS256Verifier verifies HS256 tokens against a shared secret and an
// expected issuer.
type HS256Verifier struct {
	secret []byte
	issuer string
}

// NewVerifierHS256 creates an HS256 verifier. An empty issuer means
// "don't enforce".
func NewVerifierHS256(secret []byte, issuer string) *HS256Verifier {
	return &HS256Verifier{secret: secret, issuer: issuer}
}

// Verify parses and validates a token. Signature, exp, nbf and issuer
// are all checked; the returned error distinguishes expiry from every
// other failure so callers can decide between "refresh" and "re-login".
func (v *HS256Verifier) Verify(token string) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	default:
		return ErrMalformed
	}
}
