package local

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpen(t *testing.T) {
	store := New(t.TempDir())
	payload := []byte("%PDF-1.4\nfake resume body")

	obj, err := store.Save(context.Background(), "My Resume.pdf", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(obj.Key, "uploads/") || !strings.HasSuffix(obj.Key, "/My Resume.pdf") {
		t.Fatalf("unexpected key %q", obj.Key)
	}
	if obj.SizeBytes != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), obj.SizeBytes)
	}
	if obj.MimeType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", obj.MimeType)
	}

	rc, err := store.Open(context.Background(), obj.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestSaveRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Save(context.Background(), "../escape.pdf", strings.NewReader("x")); err == nil {
		t.Fatal("expected traversal name to be rejected")
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

func TestSaveHonorsCanceledContext(t *testing.T) {
	store := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Save(ctx, "resume.pdf", strings.NewReader("x")); err == nil {
		t.Fatal("expected canceled context error")
	}
}
