package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
)

func TestNewDisabledReturnsNil(t *testing.T) {
	c, err := New(config.S3Config{})
	if err != nil || c != nil {
		t.Fatalf("New() = %v, %v; want nil, nil", c, err)
	}
}

func TestPresignDownload(t *testing.T) {
	c, err := New(config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
		Bucket:          "proofs",
		PresignTTLSec:   60,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := AttachmentKey(uuid.New(), "demo.PNG")
	if !IsAttachmentKey(key) || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}

	url, err := c.PresignDownload(context.Background(), key)
	if err != nil {
		t.Fatalf("PresignDownload: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:9000/proofs/") {
		t.Errorf("url = %q, want path-style bucket", url)
	}
	if !strings.Contains(url, "X-Amz-Signature=") {
		t.Errorf("url is not signed: %q", url)
	}

	put, err := c.PresignUpload(context.Background(), key, "image/png")
	if err != nil {
		t.Fatalf("PresignUpload: %v", err)
	}
	if !strings.Contains(put, key) {
		t.Errorf("upload url %q does not reference key", put)
	}
}

func TestIsAttachmentKey(t *testing.T) {
	tests := map[string]bool{
		"proofs/abc/def.png":        true,
		"https://github.com/x/y":    false,
		"proofs/../secrets/key.pem": false,
		"":                          false,
	}
	for in, want := range tests {
		if got := IsAttachmentKey(in); got != want {
			t.Errorf("IsAttachmentKey(%q) = %v, want %v", in, got, want)
		}
	}
}
