package telephony

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries the webhook signature.
// Format: v=<unix-ms>,d=<hex(HMAC-SHA256(secret, body || v))>
const SignatureHeader = "X-Retell-Signature"

var ErrInvalidSignature = errors.New("telephony: invalid webhook signature")

// Verifier decides whether a delivery came from the platform.
// It runs at the HTTP boundary before the body reaches the reconciler.
type Verifier interface {
	Verify(h http.Header, body []byte) error
}

// AllowAll accepts every delivery. It is the default when no signing secret is configured.
type AllowAll struct{}

func (AllowAll) Verify(http.Header, []byte) error { return nil }

// HMACVerifier checks SignatureHeader against a shared secret.
type HMACVerifier struct {
	Secret    []byte
	Tolerance time.Duration

	Now func() time.Time
}

func NewHMACVerifier(secret string, tolerance time.Duration) *HMACVerifier {
	return &HMACVerifier{Secret: []byte(secret), Tolerance: tolerance, Now: time.Now}
}

func (v *HMACVerifier) Verify(h http.Header, body []byte) error {
	raw := strings.TrimSpace(h.Get(SignatureHeader))
	if raw == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidSignature, SignatureHeader)
	}
	ts, digest, err := parseSignature(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if v.Tolerance > 0 {
		now := time.Now
		if v.Now != nil {
			now = v.Now
		}
		age := now().Sub(time.UnixMilli(ts))
		if age < 0 {
			age = -age
		}
		if age > v.Tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
		}
	}

	want := computeDigest(v.Secret, body, ts)
	if !hmac.Equal(want, digest) {
		return fmt.Errorf("%w: digest mismatch", ErrInvalidSignature)
	}
	return nil
}

// Sign produces a SignatureHeader value for body at time now.
func Sign(secret string, body []byte, now time.Time) string {
	ts := now.UnixMilli()
	return fmt.Sprintf("v=%d,d=%s", ts, hex.EncodeToString(computeDigest([]byte(secret), body, ts)))
}

func computeDigest(secret, body []byte, ts int64) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	return mac.Sum(nil)
}

func parseSignature(raw string) (int64, []byte, error) {
	var (
		ts     int64
		digest []byte
		err    error
	)
	for _, part := range strings.Split(raw, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return 0, nil, fmt.Errorf("bad signature segment %q", part)
		}
		switch k {
		case "v":
			ts, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("bad signature timestamp")
			}
		case "d":
			digest, err = hex.DecodeString(val)
			if err != nil {
				return 0, nil, fmt.Errorf("bad signature digest")
			}
		}
	}
	if ts == 0 || len(digest) == 0 {
		return 0, nil, errors.New("signature must carry v and d")
	}
	return ts, digest, nil
}
