package mygengo

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIsDeterministic(t *testing.T) {
	a := Sign("secret", 1700000000)
	b := Sign("secret", 1700000000)
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)

	mac := hmac.New(sha1.New, []byte("secret"))
	mac.Write([]byte("1700000000"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), a)
}

func TestSignDependsOnKeyAndTimestamp(t *testing.T) {
	base := Sign("secret", 1700000000)
	assert.NotEqual(t, base, Sign("other", 1700000000))
	assert.NotEqual(t, base, Sign("secret", 1700000001))
}

func TestAuthParamsConsistent(t *testing.T) {
	creds := Credentials{PublicKey: "pub", PrivateKey: "priv"}
	now := time.Unix(1700000123, 999)

	v := creds.AuthParams(now)
	assert.Equal(t, "pub", v.Get(ParamAPIKey))
	assert.Equal(t, "1700000123", v.Get(ParamTimestamp))
	assert.Equal(t, Sign("priv", 1700000123), v.Get(ParamSignature))
	assert.Equal(t, "json", v.Get(ParamFormat))
	assert.Len(t, v[ParamTimestamp], 1)
	assert.Len(t, v[ParamSignature], 1)
	assert.NotContains(t, v.Encode(), "priv=")
}

func TestCredentialsValidate(t *testing.T) {
	cases := []struct {
		name  string
		creds Credentials
		ok    bool
	}{
		{name: "valid", creds: Credentials{PublicKey: "pub", PrivateKey: "priv"}, ok: true},
		{name: "empty", creds: Credentials{}},
		{name: "blank public", creds: Credentials{PublicKey: "  ", PrivateKey: "priv"}},
		{name: "blank private", creds: Credentials{PublicKey: "pub"}},
		{name: "whitespace", creds: Credentials{PublicKey: "p ub", PrivateKey: "priv"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.creds.Validate()
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfig))
		})
	}
}

func TestCredentialsStringRedactsPrivateKey(t *testing.T) {
	s := Credentials{PublicKey: "pub", PrivateKey: "topsecret"}.String()
	assert.Contains(t, s, "pub")
	assert.NotContains(t, s, "topsecret")
}
