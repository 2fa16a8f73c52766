package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fluencykaizen/backend/internal/caption"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	projectDir := filepath.Join(root, "proj-1")
	if err := os.MkdirAll(filepath.Join(projectDir, "assets"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "project.json"), []byte(`{"id":"proj-1"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "assets", "video_001.mp4"), []byte("fake"), 0644); err != nil {
		t.Fatal(err)
	}
	return NewStore(root), projectDir
}

func TestResolveAsset(t *testing.T) {
	store, projectDir := newTestStore(t)

	path, err := store.ResolveAsset("proj-1", "video_001.mp4")
	if err != nil {
		t.Fatalf("ResolveAsset: %v", err)
	}
	if path != filepath.Join(projectDir, "assets", "video_001.mp4") {
		t.Errorf("unexpected path: %s", path)
	}
}

func TestResolveAssetMissingProject(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.ResolveAsset("nope", "video_001.mp4")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestResolveAssetMissingAsset(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.ResolveAsset("proj-1", "missing.mp4")
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("err = %v, want ErrAssetNotFound", err)
	}
}

func TestResolveAssetRejectsTraversal(t *testing.T) {
	store, _ := newTestStore(t)
	for _, name := range []string{"../proj-1", "a/b.mp4", "..", ""} {
		if _, err := store.ResolveAsset("proj-1", name); err == nil {
			t.Errorf("asset name %q accepted", name)
		}
	}
}

func TestCaptionCacheRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	data := &caption.ClipData{
		VideoFile: "video_001.mp4",
		HookTitle: caption.HookTitle{JA: "交渉術", EN: "Negotiate"},
		Clip:      caption.ClipWindow{StartTime: 120, EndTime: 165},
		Subtitles: []caption.Subtitle{
			{StartTime: 120, EndTime: 123, EN: "hello", JA: "こんにちは", Highlights: []string{}},
		},
		VocabCards: []caption.VocabCard{},
	}

	if err := store.SaveCaptions("proj-1", "video_001.mp4", data); err != nil {
		t.Fatalf("SaveCaptions: %v", err)
	}

	loaded, err := store.LoadCaptions("proj-1", "video_001.mp4")
	if err != nil {
		t.Fatalf("LoadCaptions: %v", err)
	}
	if loaded.Clip != data.Clip || loaded.HookTitle != data.HookTitle {
		t.Errorf("round trip mismatch: %+v", loaded)
	}

	// Cache key strips the extension.
	if _, err := os.Stat(store.CaptionCachePath("proj-1", "video_001.mp4")); err != nil {
		t.Errorf("cache file missing: %v", err)
	}
	if got := filepath.Base(store.CaptionCachePath("proj-1", "video_001.mp4")); got != "video_001.json" {
		t.Errorf("cache file name = %q, want video_001.json", got)
	}
}

func TestLoadCaptionsMissing(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.LoadCaptions("proj-1", "video_001.mp4"); !errors.Is(err, ErrNoCachedCaptions) {
		t.Fatalf("err = %v, want ErrNoCachedCaptions", err)
	}
}

// Regeneration fully overwrites the previous document.
func TestSaveCaptionsOverwrites(t *testing.T) {
	store, _ := newTestStore(t)

	first := &caption.ClipData{VideoFile: "video_001.mp4", Clip: caption.ClipWindow{StartTime: 10, EndTime: 50}}
	second := &caption.ClipData{VideoFile: "video_001.mp4", Clip: caption.ClipWindow{StartTime: 100, EndTime: 140}}

	if err := store.SaveCaptions("proj-1", "video_001.mp4", first); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveCaptions("proj-1", "video_001.mp4", second); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadCaptions("proj-1", "video_001.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Clip.StartTime != 100 {
		t.Errorf("old document survived regeneration: %+v", loaded.Clip)
	}
}
