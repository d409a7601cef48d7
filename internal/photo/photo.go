// Package photo checks and shrinks profile photos before they are uploaded.
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyFile      = errors.New("photo file is empty")
	ErrFileTooLarge   = errors.New("photo file too large")
	ErrDisallowedType = errors.New("photo must be a JPEG, PNG, GIF or WebP image")
	ErrExecutableFile = errors.New("executable files are not allowed")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type Options struct {
	MaxBytes int64
	MaxEdge  int
	Quality  int
}

type Prepared struct {
	FileName string
	Image
}

// Prepare reads a photo from src, rejects anything that is not a raster image
// and normalizes it. The returned file name keeps the original base name with
// an extension matching the re-encoded data.
func Prepare(originalName string, src io.Reader, opts Options) (*Prepared, error) {
	if opts.MaxBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be > 0")
	}

	data, err := io.ReadAll(io.LimitReader(src, opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, ErrFileTooLarge
	}

	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	if isExecutableSignature(sniff) {
		return nil, ErrExecutableFile
	}
	if !isAllowedMimeType(mimetype.Detect(sniff)) {
		return nil, ErrDisallowedType
	}

	img, err := NormalizeStaticImage(bytes.NewReader(data), opts.MaxEdge, opts.Quality)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		FileName: renameForType(sanitizeOriginalName(originalName), img.MimeType),
		Image:    *img,
	}, nil
}

func isAllowedMimeType(m *mimetype.MIME) bool {
	for _, t := range allowedTypes {
		if m.Is(t) {
			return true
		}
	}
	return false
}

func sanitizeOriginalName(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "photo"
	}
	if len(name) > 200 {
		return name[:200]
	}
	return name
}

func renameForType(name, mimeType string) string {
	ext := ".jpg"
	if mimeType == "image/png" {
		ext = ".png"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

func isExecutableSignature(sniff []byte) bool {
	if len(sniff) < 2 {
		return false
	}

	if sniff[0] == 'M' && sniff[1] == 'Z' {
		return true // PE/COFF
	}
	if len(sniff) >= 4 {
		if bytes.Equal(sniff[:4], []byte{0x7f, 'E', 'L', 'F'}) {
			return true
		}
		switch string(sniff[:4]) {
		case "\xfe\xed\xfa\xce", "\xce\xfa\xed\xfe", "\xfe\xed\xfa\xcf", "\xcf\xfa\xed\xfe", "\xca\xfe\xba\xbe":
			return true // Mach-O
		}
	}

	return sniff[0] == '#' && sniff[1] == '!'
}
