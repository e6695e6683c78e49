package assets

import (
	"bytes"
	"io/fs"
	"path"
	"time"
)

// File is an fs.File over an in-memory copy of an asset. It implements
// io.Seeker so http.FileServerFS can sniff content and serve ranges.
type File struct {
	*bytes.Reader
	info FileInfo
}

func NewFile(name string, data []byte, modTime time.Time) *File {
	return &File{
		Reader: bytes.NewReader(data),
		info: FileInfo{
			name:    path.Base(name),
			size:    int64(len(data)),
			modTime: modTime,
		},
	}
}

func (f *File) Stat() (fs.FileInfo, error) { return f.info, nil }

func (f *File) Close() error { return nil }

// Dir is a directory handle without listing support.
type Dir struct {
	path string
	info FileInfo
}

func NewDir(name string, modTime time.Time) *Dir {
	return &Dir{
		path: name,
		info: FileInfo{name: path.Base(name), modTime: modTime, dir: true},
	}
}

func (d *Dir) Stat() (fs.FileInfo, error) { return d.info, nil }

func (d *Dir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.path, Err: fs.ErrInvalid}
}

func (d *Dir) ReadDir(int) ([]fs.DirEntry, error) {
	return nil, &fs.PathError{Op: "readdir", Path: d.path, Err: fs.ErrPermission}
}

func (d *Dir) Close() error { return nil }

// FileInfo describes a File or Dir.
type FileInfo struct {
	name    string
	size    int64
	modTime time.Time
	dir     bool
}

func NewFileInfo(name string, size int64, modTime time.Time, dir bool) FileInfo {
	return FileInfo{name: path.Base(name), size: size, modTime: modTime, dir: dir}
}

func (i FileInfo) Name() string       { return i.name }
func (i FileInfo) Size() int64        { return i.size }
func (i FileInfo) ModTime() time.Time { return i.modTime }
func (i FileInfo) IsDir() bool        { return i.dir }
func (i FileInfo) Sys() any           { return nil }

func (i FileInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
