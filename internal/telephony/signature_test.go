package telephony

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifier_AcceptsValidSignature(t *testing.T) {
	now := time.UnixMilli(1704067200000)
	body := []byte(`{"event":"call_started"}`)
	v := NewHMACVerifier("s3cret", 5*time.Minute)
	v.Now = func() time.Time { return now.Add(time.Minute) }

	h := http.Header{}
	h.Set(SignatureHeader, Sign("s3cret", body, now))

	require.NoError(t, v.Verify(h, body))
}

func TestHMACVerifier_Rejects(t *testing.T) {
	now := time.UnixMilli(1704067200000)
	body := []byte(`{"event":"call_started"}`)

	cases := []struct {
		name   string
		header string
		body   []byte
	}{
		{"missing header", "", body},
		{"garbage header", "not-a-signature", body},
		{"wrong secret", Sign("other", body, now), body},
		{"tampered body", Sign("s3cret", body, now), []byte(`{"event":"call_ended"}`)},
		{"stale timestamp", Sign("s3cret", body, now.Add(-10*time.Minute)), body},
		{"missing digest", "v=1704067200000", body},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewHMACVerifier("s3cret", 5*time.Minute)
			v.Now = func() time.Time { return now }
			h := http.Header{}
			if tc.header != "" {
				h.Set(SignatureHeader, tc.header)
			}
			assert.ErrorIs(t, v.Verify(h, tc.body), ErrInvalidSignature)
		})
	}
}

func TestAllowAll(t *testing.T) {
	assert.NoError(t, AllowAll{}.Verify(http.Header{}, nil))
}
