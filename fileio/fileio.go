/*
 * fileio.go, part of gopenelopetools.
 *
 *
 * Copyright 2024 The gopenelopetools Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

// Package fileio opens and creates files that may be compressed. Files
// ending in .zst are read and written through zstd, files ending in .gz
// through gzip, and anything else as plain text.
package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Error is the error type of the fileio package.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string { return fmt.Sprintf("fileio %s: %s", err.filename, err.message) }

func (err Error) FileName() string { return err.filename }

// Decorate adds information to the error, and returns all decorations so far.
// Error is a value type, so the decoration is only seen in the return value.
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err Error) Critical() bool { return err.critical }

//*zstd.Decoder's Close returns nothing, so it is not an io.ReadCloser.
type zstdReader struct {
	closedec func()
	*zstd.Decoder
}

func (z zstdReader) Close() error {
	z.closedec()
	return nil
}

//readCloser closes the decompressor and then the file.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Compression returns the compression a file name implies: "zst", "gz" or "".
func Compression(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst":
		return "zst"
	case ".gz":
		return "gz"
	}
	return ""
}

// Open opens name for reading, decompressing it if its extension asks for it.
func Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"Open"}, true}
	}
	buf := bufio.NewReader(f)
	var dec io.ReadCloser
	switch Compression(name) {
	case "zst":
		var d *zstd.Decoder
		d, err = zstd.NewReader(buf)
		if err == nil {
			dec = zstdReader{d.Close, d}
		}
	case "gz":
		dec, err = gzip.NewReader(buf)
	default:
		return &readCloser{buf, []io.Closer{f}}, nil
	}
	if err != nil {
		f.Close()
		return nil, Error{"can't decompress: " + err.Error(), name, []string{"Open"}, true}
	}
	return &readCloser{dec, []io.Closer{dec, f}}, nil
}

//writeCloser flushes and closes the compressor, and then the file.
type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Create creates name for writing, compressing it if its extension asks for
// it. The file is only complete once the returned writer is closed.
func Create(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"Create"}, true}
	}
	var enc io.WriteCloser
	switch Compression(name) {
	case "zst":
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case "gz":
		enc, err = gzip.NewWriterLevel(f, gzip.BestCompression)
	default:
		return f, nil
	}
	if err != nil {
		f.Close()
		return nil, Error{"can't compress: " + err.Error(), name, []string{"Create"}, true}
	}
	return &writeCloser{enc, []io.Closer{enc, f}}, nil
}

// Copy copies src into dst, decompressing and compressing as their names
// ask for. Copy("report.dat", "report.dat.zst") compresses a report.
func Copy(src, dst string) error {
	in, err := Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return Error{err.Error(), dst, []string{"Copy"}, true}
	}
	if err = out.Close(); err != nil {
		return Error{err.Error(), dst, []string{"Copy"}, true}
	}
	return nil
}
