package token

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return header + "." + body + ".sig"
}

func TestIsExpired_Boundary(t *testing.T) {
	assert := assert.New(t)

	raw := encode(`{"exp":1700000000,"sub":"7"}`)
	exp := time.Unix(1700000000, 0)

	assert.False(IsExpired(raw, exp.Add(-time.Millisecond)))
	assert.True(IsValid(raw, exp.Add(-time.Millisecond)))

	assert.True(IsExpired(raw, exp))
	assert.False(IsValid(raw, exp))

	assert.True(IsExpired(raw, exp.Add(time.Hour)))
}

func TestMalformedTokensFailClosed(t *testing.T) {
	now := time.Unix(1600000000, 0)

	cases := map[string]string{
		"no dots":          "abc",
		"two segments":     "abc.def",
		"four segments":    "a.b.c.d",
		"non base64":       "x.%%%.y",
		"payload not json": "x." + base64.RawURLEncoding.EncodeToString([]byte("hello")) + ".y",
		"empty":            "",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, IsExpired(raw, now))
			assert.False(t, IsValid(raw, now))
		})
	}
}

func TestMissingExpClaim(t *testing.T) {
	raw := encode(`{"sub":"7"}`)
	now := time.Unix(1600000000, 0)

	assert.True(t, IsExpired(raw, now))
	assert.False(t, IsValid(raw, now))

	_, err := ExpirationMillis(raw)
	assert.ErrorIs(t, err, ErrMissingClaim)

	_, err = ExpirationMillis("abc")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestExpirationMillis(t *testing.T) {
	ms, err := ExpirationMillis(encode(`{"exp":1700000000}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), ms)
}

func TestDecode_PaddedPayload(t *testing.T) {
	body := base64.URLEncoding.EncodeToString([]byte(`{"exp":1700000000,"a":12}`))
	c, err := Decode("h." + body + ".s")
	require.NoError(t, err)

	exp, err := c.Expiration()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), exp.Unix())
}

func TestClaims_Identifiers(t *testing.T) {
	testCases := []struct {
		name      string
		payload   string
		wantUser  int64
		userOK    bool
		wantOwner int64
		ownerOK   bool
	}{
		{"userId wins", `{"userId":3,"id":4,"sub":"5","jti":"6"}`, 3, true, 6, true},
		{"id when no userId", `{"id":"4","sub":"5"}`, 4, true, 4, true},
		{"numeric sub", `{"sub":"5"}`, 5, true, 5, true},
		{"numeric jti", `{"jti":12,"sub":"nurse"}`, 0, false, 12, true},
		{"non numeric", `{"sub":"nurse"}`, 0, false, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Decode(encode(tc.payload))
			require.NoError(t, err)

			uid, ok := c.UserID()
			assert.Equal(t, tc.userOK, ok)
			assert.Equal(t, tc.wantUser, uid)

			oid, ok := c.OwnerID()
			assert.Equal(t, tc.ownerOK, ok)
			assert.Equal(t, tc.wantOwner, oid)
		})
	}
}

func TestClaims_SubjectString(t *testing.T) {
	c, err := Decode(encode(`{"sub":"nurse@clinic"}`))
	require.NoError(t, err)
	assert.Equal(t, "nurse@clinic", c.SubjectString())

	c, err = Decode(encode(`{"sub":42}`))
	require.NoError(t, err)
	assert.Equal(t, "42", c.SubjectString())
}
