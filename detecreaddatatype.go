package mttscreen

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZlib
	DataTypeBZip2
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeNoCompression:
		return "plain"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZlib:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}

	return "invalid"
}

// Byte code signatures from https://stackoverflow.com/a/19127748/199475
var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZlib:  {0x78, 0x9c},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType peeks at the head of the buffered reader and reports which
// compression, if any, the stream uses. The reader is not advanced.
func DetectDataType(r *bufio.Reader) DataType {
	// Short files (a tiny plate can be a few dozen bytes) simply yield
	// fewer bytes here, which is fine for matching.
	head, _ := r.Peek(6)

Outer:
	for dt, sig := range byteCodeSigs {
		if len(head) < len(sig) {
			continue
		}
		for position := range sig {
			if head[position] != sig[position] {
				continue Outer
			}
		}
		return dt
	}

	return DataTypeNoCompression
}

// OpenInput opens a plate file for reading. Compressed exports are
// decompressed transparently based on their content, not their name, so a
// gzipped file that kept its .csv name still loads.
func OpenInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(f)
	dt := DetectDataType(br)

	rc, err := decompressingReadCloser(f, br, dt)
	if err != nil {
		f.Close()
		return nil, pfx.Err(fmt.Errorf("%s: opening %v content: %w", path, dt, err))
	}

	return rc, nil
}

func decompressingReadCloser(f *os.File, br *bufio.Reader, dt DataType) (io.ReadCloser, error) {
	switch dt {
	case DataTypeGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &layeredReadCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case DataTypeZip:
		// Only the first member of the archive is read.
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, err
		}
		return &layeredReadCloser{Reader: zr, closers: []io.Closer{f}}, nil
	case DataTypeBZip2:
		return &layeredReadCloser{Reader: bzip2.NewReader(br), closers: []io.Closer{f}}, nil
	case DataTypeXZ:
		xzr, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, err
		}
		return &layeredReadCloser{Reader: xzr, closers: []io.Closer{f}}, nil
	case DataTypeZlib:
		zl, err := zlib.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &layeredReadCloser{Reader: zl, closers: []io.Closer{zl, f}}, nil
	}

	return &layeredReadCloser{Reader: br, closers: []io.Closer{f}}, nil
}

// layeredReadCloser reads from the outermost decoder and closes every layer,
// innermost file last.
type layeredReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *layeredReadCloser) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
