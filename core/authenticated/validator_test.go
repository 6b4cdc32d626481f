// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package authenticated

import (
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_SignAndVerify(t *testing.T) {
	t.Parallel()

	var v Validator
	require.NoError(t, v.LoadSecretKeyFromHex(NewSecretKeyHex()))

	id := uuid.New()

	signed, err := v.Sign(id, "mika", time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "mika", claims.Handle)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestValidator_PublicKeyOnly(t *testing.T) {
	t.Parallel()

	secret := paseto.NewV4AsymmetricSecretKey()

	var signer Validator
	require.NoError(t, signer.LoadSecretKeyFromHex(secret.ExportHex()))

	signed, err := signer.Sign(uuid.New(), "ren", time.Hour)
	require.NoError(t, err)

	var verifier Validator
	require.NoError(t, verifier.LoadPublicKeyFromHex(secret.Public().ExportHex()))

	_, err = verifier.Verify(signed)
	require.NoError(t, err)

	_, err = verifier.Sign(uuid.New(), "ren", time.Hour)
	require.ErrorIs(t, err, ErrNoKey)
}

func TestValidator_Rejects(t *testing.T) {
	t.Parallel()

	var v Validator
	require.NoError(t, v.LoadSecretKeyFromHex(NewSecretKeyHex()))

	expired, err := v.Sign(uuid.New(), "old", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(expired)
	require.ErrorIs(t, err, ErrInvalidToken)

	var other Validator
	require.NoError(t, other.LoadSecretKeyFromHex(NewSecretKeyHex()))

	foreign, err := other.Sign(uuid.New(), "x", time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(foreign)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("v4.public.garbage")
	require.ErrorIs(t, err, ErrInvalidToken)

	var empty Validator

	_, err = empty.Verify(foreign)
	require.ErrorIs(t, err, ErrNoKey)
}
