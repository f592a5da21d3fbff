package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSet = `[
  {
    "national_id": "1012345678",
    "username": "Ahmed",
    "password_hash": "$2b$10$abcdefghijklmnopqrstuvwxyz012345678901234567890123456",
    "name": "Ahmed Al-Qahtani",
    "phone_number": "+966500000001",
    "services": [
      {"service_type": "driver_license", "service_name": "Driver License", "expiry_date": "2026-09-01T00:00:00Z"},
      {"service_type": "passport", "service_name": "Passport"}
    ]
  },
  {
    "national_id": "1023456789",
    "username": "sara",
    "password_hash": "$2b$10$abcdefghijklmnopqrstuvwxyz012345678901234567890123456",
    "name": "Sara Al-Harbi",
    "phone_number": "+966500000002",
    "services": []
  }
]`

func TestParse_ValidSet(t *testing.T) {
	s, err := Parse([]byte(validSet))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())

	u, ok := s.FindByUsername("ahmed")
	require.True(t, ok)
	assert.Equal(t, "1012345678", u.NationalID)
	require.Len(t, u.Services, 2)
	assert.NotNil(t, u.Services[0].ExpiresAt)
	assert.Nil(t, u.Services[1].ExpiresAt)
}

func TestFindByUsername_CaseInsensitive(t *testing.T) {
	s, err := Parse([]byte(validSet))
	require.NoError(t, err)

	for _, name := range []string{"ahmed", "AHMED", "Ahmed"} {
		u, ok := s.FindByUsername(name)
		assert.True(t, ok, name)
		assert.Equal(t, "Ahmed Al-Qahtani", u.Name)
	}

	_, ok := s.FindByUsername("nobody")
	assert.False(t, ok)
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `[{`},
		{"empty set", `[]`},
		{"missing username", `[{"national_id": "1", "password_hash": "x"}]`},
		{"missing password hash", `[{"national_id": "1", "username": "a"}]`},
		{"unknown service type", `[{"national_id": "1", "username": "a", "password_hash": "x",
			"services": [{"service_type": "fishing_license", "service_name": "Fishing License"}]}]`},
		{"duplicate username", `[
			{"national_id": "1", "username": "a", "password_hash": "x"},
			{"national_id": "2", "username": "A", "password_hash": "x"}]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.json")
	assert.Error(t, err)
}
