package snapshot

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/ulikunitz/xz"
)

// File name extensions of stored snapshots.
const (
	Ext   = ".xhtml"
	XZExt = ".xhtml.xz"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// Path returns the location of a snapshot in dir. The xz variant is
// preferred when both exist. The plain path is returned when neither does.
func Path(dir, slug string) string {
	compressed := filepath.Join(dir, slug+XZExt)
	if _, err := os.Stat(compressed); err == nil {
		return compressed
	}
	return filepath.Join(dir, slug+Ext)
}

// Read loads a snapshot, decompressing it when the name ends in ".xz".
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &errors.NotFoundError{Resource: "snapshot", ID: path, Err: err}
		}
		return "", errors.NewIO("read", path, err)
	}
	if !strings.HasSuffix(path, ".xz") {
		return string(data), nil
	}
	plain, err := Decompress(data)
	if err != nil {
		return "", errors.NewIO("decompress", path, err)
	}
	return string(plain), nil
}

// Write stores doc at path atomically, compressing it when the name ends
// in ".xz".
func Write(path, doc string) error {
	data := []byte(doc)
	if strings.HasSuffix(path, ".xz") {
		var err error
		if data, err = Compress(data); err != nil {
			return errors.NewIO("compress", path, err)
		}
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO("create directory", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return errors.NewIO("create temp file", dir, err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return errors.NewIO("write", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("close", tempPath, err)
	}
	if err := osRename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("rename", path, err)
	}
	return nil
}

// Compress returns data in xz format.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
