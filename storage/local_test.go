package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalRoundtrip(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal returned error: %v", err)
	}

	ctx := context.Background()
	body := "some video bytes"

	if err := l.Put(ctx, "abc123", strings.NewReader(body), int64(len(body)), "video/mp4"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	rc, err := l.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("failed to read blob: %v", err)
	}
	if string(got) != body {
		t.Errorf("read back %q, want %q", got, body)
	}

	if err := l.Delete(ctx, "abc123"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := l.Get(ctx, "abc123"); err == nil {
		t.Error("Get succeeded after Delete")
	}
}

func TestLocalDeleteMissingIsNoop(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal returned error: %v", err)
	}

	if err := l.Delete(context.Background(), "never-existed"); err != nil {
		t.Errorf("Delete of missing key returned error: %v", err)
	}
}

func TestLocalKeyCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()

	l, err := NewLocal(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("NewLocal returned error: %v", err)
	}

	ctx := context.Background()
	if err := l.Put(ctx, "../escape", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "escape")); !errors.Is(err, os.ErrNotExist) {
		t.Error("a crafted key wrote outside the storage directory")
	}

	if _, err := os.Stat(filepath.Join(dir, "blobs", "escape")); err != nil {
		t.Errorf("flattened key missing from storage directory: %v", err)
	}
}

func TestLocalRejectsEmptyDir(t *testing.T) {
	if _, err := NewLocal(""); err == nil {
		t.Error("NewLocal accepted an empty directory")
	}
}

func TestLocalURLForIsEmpty(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal returned error: %v", err)
	}

	if u := l.URLFor("abc123"); u != "" {
		t.Errorf("URLFor = %q, want empty", u)
	}
}
