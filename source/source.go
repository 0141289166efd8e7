// Package source finds markup documents to process. A source is a single
// file, a directory (searched recursively) or a zip archive optionally
// followed by a path inside of it ("books.zip/part1").
package source

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"markfmt/archive"
)

// DocFunc is called for every document found. name is path of the document
// relative to the source (base name for a single file).
type DocFunc func(ctx context.Context, name string, r io.Reader) error

// Stats describes result of a Walk.
type Stats struct {
	Documents int
	Failed    int
}

// documentExts lists extensions of files considered to be markup documents.
var documentExts = []string{".xml", ".xhtml", ".html", ".htm"}

// IsDocument reports whether name looks like a markup document.
func IsDocument(name string) bool {
	return slices.Contains(documentExts, strings.ToLower(filepath.Ext(name)))
}

// isArchiveFile checks magic bytes of the file.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

// Walker visits documents of a source.
type Walker struct {
	// CodePage, when set, is used to decode non UTF-8 file names in archives.
	CodePage encoding.Encoding

	log   *zap.Logger
	fn    DocFunc
	stats Stats
}

func NewWalker(log *zap.Logger, fn DocFunc) *Walker {
	return &Walker{log: log, fn: fn}
}

// Walk calls walker function for every document of the source. Failures of
// individual documents are logged and counted, they do not stop the walk.
func (w *Walker) Walk(ctx context.Context, src string) (Stats, error) {
	w.stats = Stats{}

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return w.stats, err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exist, probably path inside of archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				return w.stats, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return w.stats, w.walkDir(ctx, head)
		}
		if !fi.Mode().IsRegular() {
			return w.stats, fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return w.stats, fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			pathIn := filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := w.walkArchive(ctx, head, pathIn, ""); err != nil {
				return w.stats, fmt.Errorf("unable to process archive: %w", err)
			}
			return w.stats, nil
		}
		if len(tail) == 0 {
			w.processFile(ctx, head, filepath.Base(head))
			return w.stats, nil
		}
		return w.stats, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
	}
	return w.stats, fmt.Errorf("input source was not found (%s)", src)
}

func (w *Walker) walkDir(ctx context.Context, dir string) error {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			w.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if IsDocument(path) {
			w.processFile(ctx, path, rel)
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			w.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !isArchive {
			w.log.Debug("Skipping file, not recognized as document or archive", zap.String("file", path))
			return nil
		}
		if err := w.walkArchive(ctx, path, "", filepath.Dir(rel)); err != nil {
			w.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	if err == nil && w.stats.Documents == 0 {
		w.log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return err
}

// walkArchive visits documents inside archive under pathIn, pathOut is
// prepended to reported names.
func (w *Walker) walkArchive(ctx context.Context, path, pathIn, pathOut string) error {
	return archive.Walk(path, pathIn, IsDocument, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := f.Name
		if w.CodePage != nil && f.NonUTF8 {
			if n, err := w.CodePage.NewDecoder().String(name); err == nil {
				name = n
			} else {
				cp, _ := ianaindex.IANA.Name(w.CodePage)
				w.log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", cp), zap.String("path", name), zap.Error(err))
			}
		}
		name = filepath.Join(pathOut, filepath.FromSlash(name))

		r, err := f.Open()
		if err != nil {
			w.stats.Documents++
			w.failed(name, err, zap.String("archive", arc))
			return nil
		}
		defer r.Close()
		w.process(ctx, r, name, zap.String("archive", arc))
		return nil
	})
}

func (w *Walker) processFile(ctx context.Context, path, name string) {
	f, err := os.Open(path)
	if err != nil {
		w.stats.Documents++
		w.failed(name, err)
		return
	}
	defer f.Close()
	w.process(ctx, f, name)
}

func (w *Walker) process(ctx context.Context, r io.Reader, name string, fields ...zap.Field) {
	w.stats.Documents++
	if err := w.fn(ctx, name, r); err != nil {
		w.failed(name, err, fields...)
	}
}

func (w *Walker) failed(name string, err error, fields ...zap.Field) {
	w.stats.Failed++
	w.log.Error("Unable to process document", append([]zap.Field{zap.String("document", name), zap.Error(err)}, fields...)...)
}

// CodePage returns encoding by its IANA name.
func CodePage(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported character set %q", name)
	}
	return enc, nil
}
