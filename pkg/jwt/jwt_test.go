package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

const secret = "test-secret"

func TestJWT_GenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "u-1", "t-1", "bodeguero", "stock-ledger-test", 60)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "t-1", claims.TenantID)
	assert.Equal(t, "bodeguero", claims.Role)
	assert.Equal(t, "stock-ledger-test", claims.Issuer)
}

func TestJWT_Rechazos(t *testing.T) {
	_, err := pkgjwt.Generate("", "u-1", "t-1", "admin", "", 60)
	assert.ErrorIs(t, err, pkgjwt.ErrEmptySecret)

	expired, err := pkgjwt.Generate(secret, "u-1", "t-1", "admin", "", -1)
	require.NoError(t, err)
	_, err = pkgjwt.Parse(secret, expired)
	assert.Error(t, err, "token expirado")

	valid, err := pkgjwt.Generate(secret, "u-1", "t-1", "admin", "", 60)
	require.NoError(t, err)
	_, err = pkgjwt.Parse("otro-secret", valid)
	assert.Error(t, err, "secret incorrecto")

	noTenant, err := pkgjwt.Generate(secret, "u-1", "", "admin", "", 60)
	require.NoError(t, err)
	_, err = pkgjwt.Parse(secret, noTenant)
	assert.Error(t, err, "token sin inquilino")
}
