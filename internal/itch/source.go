package itch

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Open opens an ITCH capture for reading, transparently inflating gzip
// framing detected by the 1F 8B magic at the start of the file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(f, 1<<16)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		return &gzipSource{gz: gz, f: f}, nil
	}

	return &plainSource{Reader: br, f: f}, nil
}

type plainSource struct {
	*bufio.Reader
	f *os.File
}

func (s *plainSource) Close() error { return s.f.Close() }

type gzipSource struct {
	gz *gzip.Reader
	f  *os.File
}

func (s *gzipSource) Read(p []byte) (int, error) { return s.gz.Read(p) }

func (s *gzipSource) Close() error {
	gzErr := s.gz.Close()
	if err := s.f.Close(); err != nil {
		return err
	}
	return gzErr
}
