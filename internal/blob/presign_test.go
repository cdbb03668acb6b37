package blob

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"callcheck/internal/config"
)

func testSigner() *Signer {
	cfg := config.Default()
	cfg.Presign.Secret = "test-presign-secret"
	return NewSigner(&cfg)
}

func TestSignedQueryVerifies(t *testing.T) {
	signer := testSigner()
	query := signer.SignedQuery("transcripts/abc/transcript.json")

	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	if err := signer.Verify(values.Get("key"), values.Get("exp"), values.Get("sig")); err != nil {
		t.Fatalf("Verify rejected freshly minted link: %v", err)
	}
}

func TestSignedURLShape(t *testing.T) {
	signer := testSigner()
	link := signer.SignedURL("http://127.0.0.1:7519", "results/abc/results.json")
	if !strings.HasPrefix(link, "http://127.0.0.1:7519/files?") {
		t.Fatalf("unexpected link: %s", link)
	}
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if parsed.Query().Get("key") != "results/abc/results.json" {
		t.Fatalf("key missing from link: %s", link)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	signer := testSigner()
	query := signer.SignedQuery("transcripts/abc/transcript.json")
	values, _ := url.ParseQuery(query)

	err := signer.Verify("transcripts/other/transcript.json", values.Get("exp"), values.Get("sig"))
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}

	err = signer.Verify(values.Get("key"), "", values.Get("sig"))
	if !errors.Is(err, ErrMalformedLink) {
		t.Fatalf("expected ErrMalformedLink, got %v", err)
	}
}

func TestVerifyRejectsExpiredLink(t *testing.T) {
	signer := testSigner()
	query := signer.SignedQuery("transcripts/abc/transcript.json")
	values, _ := url.ParseQuery(query)

	signer.now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	err := signer.Verify(values.Get("key"), values.Get("exp"), values.Get("sig"))
	if !errors.Is(err, ErrLinkExpired) {
		t.Fatalf("expected ErrLinkExpired, got %v", err)
	}
}

func TestDifferentSecretsDisagree(t *testing.T) {
	signer := testSigner()
	cfg := config.Default()
	cfg.Presign.Secret = "another-secret"
	other := NewSigner(&cfg)

	query := signer.SignedQuery("audio/abc/audio_file.wav")
	values, _ := url.ParseQuery(query)
	err := other.Verify(values.Get("key"), values.Get("exp"), values.Get("sig"))
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}
