// Package project is the collaborator surface over the editor's
// on-disk projects directory. Each project is a folder holding
// project.json, an assets/ directory of uploaded media, and a
// captions/ directory of generated ClipData documents.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluencykaizen/backend/internal/caption"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrNoCachedCaptions = errors.New("no cached captions")
)

type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) projectDir(projectID string) string {
	return filepath.Join(s.root, projectID)
}

// ResolveAsset validates that the project and the named asset exist
// and returns the asset's absolute path.
func (s *Store) ResolveAsset(projectID, assetName string) (string, error) {
	if !validName(projectID) || !validName(assetName) {
		return "", fmt.Errorf("%w: invalid name", ErrAssetNotFound)
	}

	projectDir := s.projectDir(projectID)
	if _, err := os.Stat(filepath.Join(projectDir, "project.json")); err != nil {
		return "", fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}

	assetPath := filepath.Join(projectDir, "assets", assetName)
	if _, err := os.Stat(assetPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrAssetNotFound, assetName)
	}

	return assetPath, nil
}

// CaptionCachePath is the cache location for an asset's captions,
// keyed by the asset's base name with the extension stripped.
func (s *Store) CaptionCachePath(projectID, assetName string) string {
	baseName := strings.TrimSuffix(filepath.Base(assetName), filepath.Ext(assetName))
	return filepath.Join(s.projectDir(projectID), "captions", baseName+".json")
}

// LoadCaptions returns the cached ClipData for an asset, or
// ErrNoCachedCaptions when none has been generated.
func (s *Store) LoadCaptions(projectID, assetName string) (*caption.ClipData, error) {
	if !validName(projectID) || !validName(assetName) {
		return nil, ErrNoCachedCaptions
	}
	raw, err := os.ReadFile(s.CaptionCachePath(projectID, assetName))
	if err != nil {
		return nil, ErrNoCachedCaptions
	}
	var data caption.ClipData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse cached captions: %w", err)
	}
	return &data, nil
}

// SaveCaptions writes the ClipData cache document, fully replacing any
// previous generation for the same asset.
func (s *Store) SaveCaptions(projectID, assetName string, data *caption.ClipData) error {
	path := s.CaptionCachePath(projectID, assetName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create captions dir: %w", err)
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal captions: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("write captions cache: %w", err)
	}
	return nil
}

// TempDir is the per-project scratch directory used during caption
// generation. It is created at run start and removed on every exit
// path.
func (s *Store) TempDir(projectID string) string {
	return filepath.Join(s.projectDir(projectID), "captions-temp")
}

// validName rejects path traversal in user-supplied identifiers.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	return true
}
