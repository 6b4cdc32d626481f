// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package authenticated verifies the v4.public PASETO bearer tokens that the
external sign-in pages hand to clients.

The token subject is the user id; the "handle" claim carries the public
handle shown next to posts.
*/
package authenticated

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// Implicit is the implicit assertion bound into every token. Changing it
// invalidates every token issued before.
const Implicit = "XEO OS forum session"

var (
	ErrNoKey        = errors.New("authenticated: no key loaded")
	ErrInvalidToken = errors.New("authenticated: invalid token")
)

// Claims are the verified contents of a token.
type Claims struct {
	UserID    uuid.UUID
	Handle    string
	ExpiresAt time.Time
}

// NewSecretKeyHex generates a fresh signing key in hex, for configuration files.
func NewSecretKeyHex() string {
	return paseto.NewV4AsymmetricSecretKey().ExportHex()
}

// Validator signs and verifies v4.public tokens.
//
// Production deployments load only the public key; tests and tooling may
// load a secret key, from which the public key is derived.
type Validator struct {
	secretKey *paseto.V4AsymmetricSecretKey
	publicKey *paseto.V4AsymmetricPublicKey
}

// LoadSecretKeyFromHex loads a signing key.
func (v *Validator) LoadSecretKeyFromHex(hex string) error {
	key, err := paseto.NewV4AsymmetricSecretKeyFromHex(hex)
	if err != nil {
		return fmt.Errorf("failed to load secret key: %w", err)
	}

	public := key.Public()

	v.secretKey = &key
	v.publicKey = &public

	return nil
}

// LoadPublicKeyFromHex loads a verification-only key.
func (v *Validator) LoadPublicKeyFromHex(hex string) error {
	key, err := paseto.NewV4AsymmetricPublicKeyFromHex(hex)
	if err != nil {
		return fmt.Errorf("failed to load public key: %w", err)
	}

	v.secretKey = nil
	v.publicKey = &key

	return nil
}

// Loaded reports whether the validator can verify tokens.
func (v *Validator) Loaded() bool {
	return v != nil && v.publicKey != nil
}

// Sign issues a token for userID that expires after ttl.
func (v *Validator) Sign(userID uuid.UUID, handle string, ttl time.Duration) (string, error) {
	if v == nil || v.secretKey == nil {
		return "", ErrNoKey
	}

	token := paseto.NewToken()
	token.SetIssuedAt(time.Now())
	token.SetExpiration(time.Now().Add(ttl))
	token.SetSubject(userID.String())
	token.SetString("handle", handle)

	return token.V4Sign(*v.secretKey, []byte(Implicit)), nil
}

// Verify checks the signature and expiry of a token and returns its claims.
func (v *Validator) Verify(signed string) (Claims, error) {
	if !v.Loaded() {
		return Claims{}, ErrNoKey
	}

	parser := paseto.NewParser() // NotExpired is a default rule.

	token, err := parser.ParseV4Public(*v.publicKey, signed, []byte(Implicit))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	subject, err := token.GetSubject()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	handle, err := token.GetString("handle")
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	expiresAt, _ := token.GetExpiration()

	return Claims{UserID: userID, Handle: handle, ExpiresAt: expiresAt}, nil
}
