package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("doc-1", "projects/p-1/thesis.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	file, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "doc-1", file.ResourceID)
	require.Equal(t, "projects/p-1/thesis.pdf", file.Path)
	require.WithinDuration(t, expiresAt, file.ExpiresAt, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("doc-1", "projects/p-1/thesis.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Parse(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerTampered(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("doc-1", "projects/p-1/thesis.pdf")
	require.NoError(t, err)

	_, err = signer.Parse(strings.Replace(token, "doc-1", "doc-2", 1))
	require.ErrorIs(t, err, ErrTokenSignature)

	_, err = NewSignedURLSigner("other", time.Minute).Parse(token)
	require.ErrorIs(t, err, ErrTokenSignature)

	_, err = signer.Parse("garbage")
	require.ErrorIs(t, err, ErrTokenMalformed)
}
