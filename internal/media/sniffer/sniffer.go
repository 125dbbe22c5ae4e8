package sniffer

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
	TypeAVIF MediaType = "avif"
	TypeSVG  MediaType = "svg"
	TypeMP4  MediaType = "mp4"
	TypeMOV  MediaType = "mov"
	TypeWEBM MediaType = "webm"
)

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type  MediaType
	MIME  string
	Video bool
}

// Ext is the file extension objects of this type are stored under.
func (r Result) Ext() string {
	return string(r.Type)
}

func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	return result, head, err
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}

	switch {
	case isJPEG(head):
		return Result{Type: TypeJPEG, MIME: "image/jpeg"}, nil
	case isPNG(head):
		return Result{Type: TypePNG, MIME: "image/png"}, nil
	case isGIF(head):
		return Result{Type: TypeGIF, MIME: "image/gif"}, nil
	case isWEBP(head):
		return Result{Type: TypeWEBP, MIME: "image/webp"}, nil
	case isWEBM(head):
		return Result{Type: TypeWEBM, MIME: "video/webm", Video: true}, nil
	}

	if brand, ok := ftypBrand(head); ok {
		switch {
		case strings.HasPrefix(brand, "avi"):
			return Result{Type: TypeAVIF, MIME: "image/avif"}, nil
		case brand == "qt  ":
			return Result{Type: TypeMOV, MIME: "video/quicktime", Video: true}, nil
		default:
			return Result{Type: TypeMP4, MIME: "video/mp4", Video: true}, nil
		}
	}

	if isSVG(head) {
		return Result{Type: TypeSVG, MIME: "image/svg+xml"}, nil
	}

	return Result{}, ErrUnknownType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isGIF(head []byte) bool {
	return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

// isWEBM matches the EBML header shared by webm and matroska files.
func isWEBM(head []byte) bool {
	return len(head) >= 4 && bytes.Equal(head[:4], []byte{0x1a, 0x45, 0xdf, 0xa3})
}

// ftypBrand returns the major brand of an ISO base media file (mp4, mov,
// avif, heic all start with an ftyp box).
func ftypBrand(head []byte) (string, bool) {
	if len(head) < 12 || string(head[4:8]) != "ftyp" {
		return "", false
	}
	return string(head[8:12]), true
}

func isSVG(head []byte) bool {
	trimmed := strings.TrimSpace(string(head))
	if strings.HasPrefix(trimmed, "<svg") {
		return true
	}
	return strings.HasPrefix(trimmed, "<?xml") && strings.Contains(trimmed, "<svg")
}

// NormalizeMIME strips parameters from a Content-Type value.
func NormalizeMIME(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// Compatible reports whether a client-declared type agrees with the
// detected one. Clients that declare nothing useful are trusted to the
// detection.
func Compatible(declared string, detected Result) bool {
	declared = NormalizeMIME(declared)
	switch declared {
	case "", "application/octet-stream":
		return true
	case "image/jpg", "image/pjpeg":
		return detected.Type == TypeJPEG
	case "video/x-matroska":
		return detected.Type == TypeWEBM
	}
	return declared == detected.MIME
}
