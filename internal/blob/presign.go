package blob

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"callcheck/internal/config"
)

// Presign errors returned by Verify.
var (
	ErrLinkExpired   = errors.New("signed link expired")
	ErrBadSignature  = errors.New("signed link signature mismatch")
	ErrMalformedLink = errors.New("signed link malformed")
)

// Signer mints and verifies time-limited download links for objects in the
// store. Links are HMAC-SHA256 signed over the object key and expiry so they
// can be handed to clients without exposing the bucket.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a Signer from the presign configuration section.
func NewSigner(cfg *config.Config) *Signer {
	return &Signer{
		secret: []byte(cfg.Presign.Secret),
		ttl:    time.Duration(cfg.Presign.TTLMinutes) * time.Minute,
		now:    time.Now,
	}
}

// SignedQuery returns the query string granting temporary access to key,
// e.g. "key=transcripts%2Fabc%2Ftranscript.json&exp=1712345678&sig=...".
func (s *Signer) SignedQuery(key string) string {
	exp := s.now().Add(s.ttl).Unix()
	values := url.Values{}
	values.Set("key", key)
	values.Set("exp", strconv.FormatInt(exp, 10))
	values.Set("sig", s.signature(key, exp))
	return values.Encode()
}

// SignedURL returns a full download URL for key served by the given base,
// e.g. "http://127.0.0.1:7519".
func (s *Signer) SignedURL(base, key string) string {
	return fmt.Sprintf("%s/files?%s", base, s.SignedQuery(key))
}

// Verify checks a presented key/exp/sig triple. It rejects expired links and
// links whose signature does not match.
func (s *Signer) Verify(key, expValue, sig string) error {
	if key == "" || expValue == "" || sig == "" {
		return ErrMalformedLink
	}
	exp, err := strconv.ParseInt(expValue, 10, 64)
	if err != nil {
		return ErrMalformedLink
	}
	expected := s.signature(key, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	if s.now().Unix() > exp {
		return ErrLinkExpired
	}
	return nil
}

func (s *Signer) signature(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
