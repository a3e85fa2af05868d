// Package iagonfs exposes Iagon remote storage through a path-based
// filesystem facade. Paths are /-separated and resolved against the remote
// directory tree on every call — there is no local cache, so every read and
// write is a direct round trip. The read side also conforms to io/fs via
// IOFS, so stdlib tooling (fs.WalkDir, fs.ReadFile) works against remote
// storage unchanged.
package iagonfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/iagon-community/iagon-go/internal/iagon"
)

// Entry describes a file or directory at a path.
type Entry struct {
	Name    string
	ID      string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Config carries upload/download defaults for the filesystem.
type Config struct {
	// Password encrypts uploads and decrypts downloads. Empty selects the
	// client default.
	Password string

	// Visibility for uploads and listings: iagon.VisibilityPrivate
	// (default) or iagon.VisibilityPublic.
	Visibility string

	// RegionID routes uploads to a storage region. Empty lets the gateway
	// choose.
	RegionID string

	// Logger for structured logging. nil selects slog.Default().
	Logger *slog.Logger
}

// FS is a filesystem view over a single wallet's remote storage.
type FS struct {
	client   *iagon.Client
	password string
	private  bool
	regionID string
	logger   *slog.Logger
}

// New builds a filesystem facade over the given API client.
func New(client *iagon.Client, cfg Config) *FS {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FS{
		client:   client,
		password: cfg.Password,
		private:  cfg.Visibility != iagon.VisibilityPublic,
		regionID: cfg.RegionID,
		logger:   logger,
	}
}

// splitPath normalizes a /-separated path into NFC segments.
// "", ".", and "/" all mean the root.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" || trimmed == "." {
		return nil
	}

	segments := strings.Split(trimmed, "/")
	for i, seg := range segments {
		segments[i] = norm.NFC.String(seg)
	}

	return segments
}

// notExist builds the fs-conventional "does not exist" error for a path.
func notExist(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
}

// fileDisplayName reconstructs the full file name from the gateway's split
// name/extension fields. Some gateway responses keep the extension in the
// name, so the suffix is only appended when missing.
func fileDisplayName(f *iagon.File) string {
	if f.Ext != "" && !strings.HasSuffix(f.Name, "."+f.Ext) {
		return f.Name + "." + f.Ext
	}

	return f.Name
}

// resolveDir walks the directory tree from the root along segments and
// returns the ID chain of the traversed directories. An empty segments
// slice resolves to the root (nil chain).
func (f *FS) resolveDir(ctx context.Context, op string, segments []string) ([]string, error) {
	chain := make([]string, 0, len(segments))

	for i, seg := range segments {
		listing, err := f.client.List(ctx, chain, f.private)
		if err != nil {
			return nil, err
		}

		var found *iagon.Directory

		for j := range listing.Directories {
			if norm.NFC.String(listing.Directories[j].Name) == seg {
				found = &listing.Directories[j]
				break
			}
		}

		if found == nil {
			return nil, notExist(op, strings.Join(segments[:i+1], "/"))
		}

		chain = append(chain, found.ID)
	}

	return chain, nil
}

// Stat resolves a path to its entry. The root resolves to a synthetic
// directory entry with an empty ID.
func (f *FS) Stat(ctx context.Context, path string) (*Entry, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return &Entry{Name: "/", IsDir: true}, nil
	}

	parent, name := segments[:len(segments)-1], segments[len(segments)-1]

	chain, err := f.resolveDir(ctx, "stat", parent)
	if err != nil {
		return nil, err
	}

	listing, err := f.client.List(ctx, chain, f.private)
	if err != nil {
		return nil, err
	}

	for i := range listing.Directories {
		if norm.NFC.String(listing.Directories[i].Name) == name {
			d := &listing.Directories[i]

			return &Entry{
				Name:    d.Name,
				ID:      d.ID,
				IsDir:   true,
				ModTime: d.UpdatedAt,
			}, nil
		}
	}

	for i := range listing.Files {
		if norm.NFC.String(fileDisplayName(&listing.Files[i])) == name {
			fl := &listing.Files[i]

			return &Entry{
				Name:    fileDisplayName(fl),
				ID:      fl.ID,
				Size:    fl.Size,
				ModTime: fl.UpdatedAt,
			}, nil
		}
	}

	return nil, notExist("stat", path)
}

// Exists reports whether a file or directory exists at path.
func (f *FS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := f.Stat(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// ReadDir lists the entries of the directory at path. An empty directory
// yields an empty slice, not an error.
func (f *FS) ReadDir(ctx context.Context, path string) ([]Entry, error) {
	chain, err := f.resolveDir(ctx, "readdir", splitPath(path))
	if err != nil {
		return nil, err
	}

	listing, err := f.client.List(ctx, chain, f.private)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(listing.Directories)+len(listing.Files))

	for i := range listing.Directories {
		d := &listing.Directories[i]
		entries = append(entries, Entry{
			Name:    d.Name,
			ID:      d.ID,
			IsDir:   true,
			ModTime: d.UpdatedAt,
		})
	}

	for i := range listing.Files {
		fl := &listing.Files[i]
		entries = append(entries, Entry{
			Name:    fileDisplayName(fl),
			ID:      fl.ID,
			Size:    fl.Size,
			ModTime: fl.UpdatedAt,
		})
	}

	return entries, nil
}

// Open returns a reader over the file at path. The content streams from
// the gateway; the caller must close the reader.
func (f *FS) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	entry, err := f.Stat(ctx, path)
	if err != nil {
		return nil, err
	}

	if entry.IsDir {
		return nil, &fs.PathError{Op: "open", Path: path, Err: errors.New("is a directory")}
	}

	pr, pw := io.Pipe()

	go func() {
		_, dlErr := f.client.Download(ctx, entry.ID, f.password, pw)
		pw.CloseWithError(dlErr)
	}()

	return pr, nil
}

// ReadFile reads the whole file at path into memory.
func (f *FS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	r, err := f.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteFile uploads data to path, creating missing parent directories.
// Returns the gateway-assigned file ID.
func (f *FS) WriteFile(ctx context.Context, path string, data []byte) (string, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return "", &fs.PathError{Op: "write", Path: path, Err: errors.New("missing file name")}
	}

	parent, name := segments[:len(segments)-1], segments[len(segments)-1]

	dirID, err := f.mkdirChain(ctx, parent)
	if err != nil {
		return "", err
	}

	visibility := iagon.VisibilityPrivate
	if !f.private {
		visibility = iagon.VisibilityPublic
	}

	fileID, err := f.client.Upload(ctx, iagon.UploadRequest{
		Name:       name,
		Data:       data,
		Password:   f.password,
		Visibility: visibility,
		DirID:      dirID,
		RegionID:   f.regionID,
	})
	if err != nil {
		return "", err
	}

	f.logger.Debug("wrote remote file",
		slog.String("path", path),
		slog.String("file_id", fileID),
	)

	return fileID, nil
}

// MkdirAll creates the directory at path along with any missing parents.
// Returns the ID of the final directory; existing directories are reused.
func (f *FS) MkdirAll(ctx context.Context, path string) (string, error) {
	dirID, err := f.mkdirChain(ctx, splitPath(path))
	if err != nil {
		return "", err
	}

	return dirID, nil
}

// mkdirChain walks segments, creating each missing directory, and returns
// the ID of the last one ("" for the root). A concurrent creator can win
// the race — the resulting 409 resolves to the existing directory.
func (f *FS) mkdirChain(ctx context.Context, segments []string) (string, error) {
	chain := make([]string, 0, len(segments))
	parentID := ""

	for i, seg := range segments {
		listing, err := f.client.List(ctx, chain, f.private)
		if err != nil {
			return "", err
		}

		existing := ""

		for j := range listing.Directories {
			if norm.NFC.String(listing.Directories[j].Name) == seg {
				existing = listing.Directories[j].ID
				break
			}
		}

		if existing == "" {
			dir, createErr := f.client.CreateDirectory(ctx, seg, parentID)
			if createErr == nil {
				existing = dir.ID
			} else if errors.Is(createErr, iagon.ErrDirectoryExists) {
				resolved, resolveErr := f.resolveDir(ctx, "mkdir", segments[:i+1])
				if resolveErr != nil {
					return "", fmt.Errorf("iagonfs: resolving existing directory %q: %w", seg, resolveErr)
				}

				existing = resolved[len(resolved)-1]
			} else {
				return "", createErr
			}
		}

		chain = append(chain, existing)
		parentID = existing
	}

	return parentID, nil
}

// RemoveDir deletes the directory at path and everything inside it.
func (f *FS) RemoveDir(ctx context.Context, path string) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return &fs.PathError{Op: "rmdir", Path: path, Err: errors.New("cannot remove root")}
	}

	chain, err := f.resolveDir(ctx, "rmdir", segments)
	if err != nil {
		return err
	}

	return f.client.DeleteDirectory(ctx, chain[len(chain)-1])
}
