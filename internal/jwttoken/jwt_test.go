package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "absher/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("signing-key", "absher-test")
	sessionID := uuid.New()

	token, err := svc.GenerateAccessToken(sessionID, "Ahmed", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "Ahmed", claims.Name)
	assert.Equal(t, "absher-test", claims.Issuer)

	got, err := svc.ExtractSessionID(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, got)
}

func TestValidateToken_WrongKey(t *testing.T) {
	token, err := NewService("key-one", "absher-test").GenerateAccessToken(uuid.New(), "Ahmed", time.Hour)
	require.NoError(t, err)

	_, err = NewService("key-two", "absher-test").ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewService("signing-key", "absher-test")
	token, err := svc.GenerateAccessToken(uuid.New(), "Ahmed", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := NewService("signing-key", "absher-test").ValidateToken("not.a.token")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
