package document

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func newTestSigner() *URLSigner {
	return NewURLSigner([]byte("test-secret"), 15*time.Minute)
}

func TestURLSigner_signAndVerify(t *testing.T) {
	signer := newTestSigner()

	q, err := url.ParseQuery(signer.Sign("doc-1"))
	if err != nil {
		t.Fatalf("ParseQuery() failed: %v", err)
	}
	if err = signer.Verify("doc-1", q.Get("expires"), q.Get("signature")); err != nil {
		t.Errorf("Verify() failed on a fresh signature: %v", err)
	}
}

func TestURLSigner_rejectsTampering(t *testing.T) {
	signer := newTestSigner()
	q, _ := url.ParseQuery(signer.Sign("doc-1"))
	expires, sig := q.Get("expires"), q.Get("signature")

	tests := []struct {
		name         string
		docID        string
		expires, sig string
	}{
		{name: "missing signature", docID: "doc-1", expires: expires},
		{name: "missing expiry", docID: "doc-1", sig: sig},
		{name: "non-numeric expiry", docID: "doc-1", expires: "lol", sig: sig},
		{name: "other document", docID: "doc-2", expires: expires, sig: sig},
		{name: "garbage signature", docID: "doc-1", expires: expires, sig: "bm9wZQ"},
		{
			name:    "extended expiry",
			docID:   "doc-1",
			expires: strconv.FormatInt(time.Now().Add(24*time.Hour).Unix(), 10),
			sig:     sig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := signer.Verify(tt.docID, tt.expires, tt.sig); err != ErrInvalidSignature {
				t.Errorf("Verify() = %v, want ErrInvalidSignature", err)
			}
		})
	}
}

func TestURLSigner_expiry(t *testing.T) {
	signer := newTestSigner()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	q, _ := url.ParseQuery(signer.Sign("doc-1"))
	expires, sig := q.Get("expires"), q.Get("signature")

	// still valid just before the deadline
	now = now.Add(14 * time.Minute)
	if err := signer.Verify("doc-1", expires, sig); err != nil {
		t.Errorf("Verify() before expiry failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := signer.Verify("doc-1", expires, sig); err != ErrURLExpired {
		t.Errorf("Verify() after expiry = %v, want ErrURLExpired", err)
	}
}

func TestURLSigner_signedPath(t *testing.T) {
	signer := newTestSigner()
	p := signer.SignedPath("doc-1")
	if !strings.HasPrefix(p, "/v1/documents/doc-1/download?") {
		t.Errorf("SignedPath() = %q, want the download route prefix", p)
	}
	u, err := url.Parse(p)
	if err != nil {
		t.Fatalf("url.Parse() failed: %v", err)
	}
	q := u.Query()
	if q.Get("expires") == "" || q.Get("signature") == "" {
		t.Errorf("SignedPath() missing expires/signature: %q", p)
	}
}
