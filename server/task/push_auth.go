// Copyright 2026 The A2AKit Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// bodyDigestClaim carries the SHA-256 of the request body so receivers can
// bind the signature to the exact payload they got.
const bodyDigestClaim = "request_body_sha256"

// PushNotificationSigner mints short-lived JWTs for outgoing push
// notification requests. Receivers verify the token against the sender's
// public key and check the body digest claim.
type PushNotificationSigner struct {
	key      *rsa.PrivateKey
	issuer   string
	lifetime time.Duration
}

// NewPushNotificationSigner creates a signer for the given RSA key.
func NewPushNotificationSigner(key *rsa.PrivateKey, issuer string) (*PushNotificationSigner, error) {
	if key == nil {
		return nil, fmt.Errorf("signing key cannot be nil")
	}
	if issuer == "" {
		return nil, fmt.Errorf("issuer cannot be empty")
	}
	return &PushNotificationSigner{
		key:      key,
		issuer:   issuer,
		lifetime: 5 * time.Minute,
	}, nil
}

// Sign returns a compact JWT binding the issuer, the issue time, and the
// digest of body.
func (s *PushNotificationSigner) Sign(body []byte) (string, error) {
	digest := sha256.Sum256(body)
	now := time.Now().UTC()

	token, err := jwt.NewBuilder().
		Issuer(s.issuer).
		IssuedAt(now).
		Expiration(now.Add(s.lifetime)).
		Claim(bodyDigestClaim, hex.EncodeToString(digest[:])).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build push notification token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), s.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign push notification token: %w", err)
	}
	return string(signed), nil
}

// PushNotificationVerifier validates tokens minted by PushNotificationSigner.
type PushNotificationVerifier struct {
	key *rsa.PublicKey
}

// NewPushNotificationVerifier creates a verifier for the given public key.
func NewPushNotificationVerifier(key *rsa.PublicKey) (*PushNotificationVerifier, error) {
	if key == nil {
		return nil, fmt.Errorf("verification key cannot be nil")
	}
	return &PushNotificationVerifier{key: key}, nil
}

// Verify checks the token signature, its validity window, and that the body
// digest claim matches body.
func (v *PushNotificationVerifier) Verify(tokenString string, body []byte) error {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.RS256(), v.key),
		jwt.WithValidate(true),
	)
	if err != nil {
		return fmt.Errorf("failed to verify push notification token: %w", err)
	}

	var claimed string
	if err := token.Get(bodyDigestClaim, &claimed); err != nil {
		return fmt.Errorf("push notification token has no body digest: %w", err)
	}

	digest := sha256.Sum256(body)
	if claimed != hex.EncodeToString(digest[:]) {
		return fmt.Errorf("push notification body digest mismatch")
	}
	return nil
}
