package uploads

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestDetectImageType(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		data     []byte
		want     string
		wantErr  bool
	}{
		{name: "sniffed png", declared: "application/octet-stream", data: pngHeader, want: "image/png"},
		{name: "declared jpeg", declared: "image/jpeg", data: []byte("not really a jpeg"), want: "image/jpeg"},
		{name: "declared with params", declared: "Image/WebP; q=1", data: []byte("xx"), want: "image/webp"},
		{name: "text file", declared: "text/plain", data: []byte("hello"), wantErr: true},
		{name: "no declared type", declared: "", data: []byte("%PDF-1.4"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectImageType(tt.declared, tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewName(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		wantExt     string
	}{
		{"leaf.JPG", "image/jpeg", ".jpg"},
		{"leaf", "image/png", ".png"},
		{"../../etc/passwd", "image/gif", ".gif"},
		{"weird.name.with-a-very-long-extension", "image/webp", ".webp"},
		{"blob", "image/x-unknown", ""},
	}

	for _, tt := range tests {
		name := NewName(tt.filename, tt.contentType)
		assert.True(t, ValidName(name), "NewName(%q) = %q is not valid", tt.filename, name)
		assert.Equal(t, tt.wantExt, filepath.Ext(name), tt.filename)
	}

	assert.NotEqual(t, NewName("a.jpg", ""), NewName("a.jpg", ""))
}

func TestNameFromURL(t *testing.T) {
	name := NewName("a.png", "image/png")

	got, ok := NameFromURL(URL(name))
	assert.True(t, ok)
	assert.Equal(t, name, got)

	_, ok = NameFromURL("/uploads/../secret")
	assert.False(t, ok)
	_, ok = NameFromURL("https://example.com/x.png")
	assert.False(t, ok)
}

func TestLocalStore_SaveOpen(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, config.UploadsConfig{Backend: "local", Dir: filepath.Join(t.TempDir(), "uploads")})
	require.NoError(t, err)
	assert.Equal(t, "local", store.Backend())

	name := NewName("leaf.png", "image/png")
	require.NoError(t, store.Save(ctx, name, "image/png", pngHeader))

	rc, contentType, err := store.Open(ctx, name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", contentType)

	_, _, err = store.Open(ctx, NewName("missing.png", "image/png"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = store.Open(ctx, "../store.go")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, store.Save(ctx, "../escape.png", "image/png", pngHeader))
}

func TestLocalStore_Sweep(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	oldName := NewName("old.jpg", "image/jpeg")
	newName := NewName("new.jpg", "image/jpeg")
	require.NoError(t, store.Save(ctx, oldName, "image/jpeg", []byte("old")))
	require.NoError(t, store.Save(ctx, newName, "image/jpeg", []byte("new")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))

	past := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, oldName), past, past))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "keep.txt"), past, past))

	removed, err := store.Sweep(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{newName, "keep.txt"}, names)
	assert.False(t, strings.Contains(strings.Join(names, ","), oldName))
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.UploadsConfig{Backend: "azure"})
	assert.Error(t, err)
}
