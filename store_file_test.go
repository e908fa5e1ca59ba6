package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goforj/persist/persisttest"
)

func TestFileStoreContract(t *testing.T) {
	persisttest.RunStoreContract(t, newFileStore(t.TempDir(), ""), persisttest.Options{})
}

func TestFileStorePathLayout(t *testing.T) {
	dir := t.TempDir()
	store := newFileStore(dir, ".yaml")
	ctx := context.Background()

	if err := store.Set(ctx, "windows/main", []byte("left: 1\n")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "windows", "main.yaml")); err != nil {
		t.Fatalf("expected nested record file: %v", err)
	}
}

func TestFileStoreCreatesMissingBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not", "yet")
	store := newFileStore(dir, "")
	if err := store.Set(context.Background(), "settings", []byte("<Settings></Settings>")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "settings.xml")); err != nil {
		t.Fatalf("expected record in created dir: %v", err)
	}
}

func TestFileStoreRejectsEscapingNames(t *testing.T) {
	store := newFileStore(t.TempDir(), "")
	ctx := context.Background()
	if err := store.Set(ctx, "../escape", []byte("x")); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
	if _, _, err := store.Get(ctx, "/etc/passwd"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
}

func TestFileStoreRenameFailureKeepsPreviousRecord(t *testing.T) {
	dir := t.TempDir()
	store := newFileStore(dir, "")
	ctx := context.Background()
	if err := store.Set(ctx, "settings", []byte("old")); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	orig := renameFile
	renameFile = func(string, string) error { return errors.New("rename boom") }
	t.Cleanup(func() { renameFile = orig })

	if err := store.Set(ctx, "settings", []byte("new")); err == nil {
		t.Fatalf("expected rename failure")
	}
	body, ok, err := store.Get(ctx, "settings")
	if err != nil || !ok || string(body) != "old" {
		t.Fatalf("expected previous record intact: ok=%v err=%v body=%q", ok, err, body)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".persist-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreCreateTempFailure(t *testing.T) {
	store := newFileStore(t.TempDir(), "")
	orig := createTempFile
	createTempFile = func(string, string) (*os.File, error) { return nil, errors.New("no space") }
	t.Cleanup(func() { createTempFile = orig })

	if err := store.Set(context.Background(), "settings", []byte("x")); err == nil {
		t.Fatalf("expected create temp failure")
	}
}

func TestFileStoreGetReadError(t *testing.T) {
	dir := t.TempDir()
	store := newFileStore(dir, "")
	// A directory where the record file should be cannot be read as a file.
	if err := os.MkdirAll(filepath.Join(dir, "settings.xml"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if _, _, err := store.Get(context.Background(), "settings"); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestFileStoreDefaults(t *testing.T) {
	store := newFileStore("", "").(*fileStore)
	if store.dir == "" || store.ext != ".xml" {
		t.Fatalf("unexpected defaults: dir=%q ext=%q", store.dir, store.ext)
	}
	if store.Driver() != DriverFile {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}
