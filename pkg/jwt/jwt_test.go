package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateParse_RoundTrip(t *testing.T) {
	tok, err := Generate(secret, "retail-ledger", Claims{UserID: "u1", CompanyID: "t1", Role: "admin"}, time.Minute)
	require.NoError(t, err)

	c, err := Parse(secret, "retail-ledger", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "t1", c.CompanyID)
	assert.Equal(t, "admin", c.Role)
	assert.Equal(t, "u1", c.Subject)
}

func TestParse_Rechazos(t *testing.T) {
	valid, err := Generate(secret, "retail-ledger", Claims{UserID: "u1", CompanyID: "t1"}, time.Minute)
	require.NoError(t, err)

	_, err = Parse("otro-secreto", "retail-ledger", valid)
	assert.Error(t, err, "firma incorrecta")

	_, err = Parse(secret, "otro-emisor", valid)
	assert.Error(t, err, "emisor distinto")

	expired, err := Generate(secret, "retail-ledger", Claims{UserID: "u1", CompanyID: "t1"}, -time.Minute)
	require.NoError(t, err)
	_, err = Parse(secret, "retail-ledger", expired)
	assert.Error(t, err, "expirado")

	noTenant, err := Generate(secret, "retail-ledger", Claims{UserID: "u1"}, time.Minute)
	require.NoError(t, err)
	_, err = Parse(secret, "retail-ledger", noTenant)
	assert.ErrorIs(t, err, ErrMissingTenant)

	_, err = Parse("", "", valid)
	assert.Error(t, err)
}
