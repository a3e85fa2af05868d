package iagonfs

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"time"
)

// IOFS returns an io/fs view of the remote filesystem, bound to ctx for the
// lifetime of the view. It implements fs.FS, fs.ReadDirFS, fs.ReadFileFS
// and fs.StatFS, so stdlib helpers like fs.WalkDir traverse remote storage
// directly. fs.File contents are materialized per Open — io/fs has no
// context or streaming contract to defer to.
func (f *FS) IOFS(ctx context.Context) fs.FS {
	return &ioFS{fsys: f, ctx: ctx}
}

type ioFS struct {
	fsys *FS
	ctx  context.Context
}

var (
	_ fs.FS         = (*ioFS)(nil)
	_ fs.ReadDirFS  = (*ioFS)(nil)
	_ fs.ReadFileFS = (*ioFS)(nil)
	_ fs.StatFS     = (*ioFS)(nil)
)

func (v *ioFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	entry, err := v.fsys.Stat(v.ctx, name)
	if err != nil {
		return nil, err
	}

	if entry.IsDir {
		return &ioDir{v: v, name: name, info: entryInfo{e: *entry}}, nil
	}

	data, err := v.fsys.ReadFile(v.ctx, name)
	if err != nil {
		return nil, err
	}

	return &ioFile{
		info:   entryInfo{e: *entry},
		reader: bytes.NewReader(data),
	}, nil
}

func (v *ioFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	entries, err := v.fsys.ReadDir(v.ctx, name)
	if err != nil {
		return nil, err
	}

	out := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryInfo{e: e})
	}

	return out, nil
}

func (v *ioFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}

	return v.fsys.ReadFile(v.ctx, name)
}

func (v *ioFS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}

	entry, err := v.fsys.Stat(v.ctx, name)
	if err != nil {
		return nil, err
	}

	return entryInfo{e: *entry}, nil
}

// entryInfo adapts Entry to both fs.FileInfo and fs.DirEntry.
type entryInfo struct {
	e Entry
}

func (i entryInfo) Name() string {
	return i.e.Name
}

func (i entryInfo) Size() int64 {
	return i.e.Size
}

func (i entryInfo) Mode() fs.FileMode {
	if i.e.IsDir {
		return fs.ModeDir | 0o755
	}

	return 0o644
}

func (i entryInfo) ModTime() time.Time {
	return i.e.ModTime
}

func (i entryInfo) IsDir() bool {
	return i.e.IsDir
}

func (i entryInfo) Sys() any {
	return nil
}

func (i entryInfo) Type() fs.FileMode {
	return i.Mode().Type()
}

func (i entryInfo) Info() (fs.FileInfo, error) {
	return i, nil
}

// ioFile is a materialized remote file.
type ioFile struct {
	info   entryInfo
	reader *bytes.Reader
}

func (f *ioFile) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

func (f *ioFile) Read(p []byte) (int, error) {
	return f.reader.Read(p)
}

func (f *ioFile) Close() error {
	return nil
}

// ioDir is an opened directory handle supporting ReadDir.
type ioDir struct {
	v       *ioFS
	name    string
	info    entryInfo
	entries []fs.DirEntry
	offset  int
}

func (d *ioDir) Stat() (fs.FileInfo, error) {
	return d.info, nil
}

func (d *ioDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *ioDir) Close() error {
	return nil
}

// ReadDir implements fs.ReadDirFile with the usual n semantics.
func (d *ioDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.entries == nil {
		entries, err := d.v.ReadDir(d.name)
		if err != nil {
			return nil, err
		}

		d.entries = entries
	}

	remaining := d.entries[d.offset:]

	if n <= 0 {
		d.offset = len(d.entries)
		return remaining, nil
	}

	if len(remaining) == 0 {
		return nil, io.EOF
	}

	if n > len(remaining) {
		n = len(remaining)
	}

	d.offset += n

	return remaining[:n], nil
}
