// Package validation gates uploads on container format before any scanning
// or transcoding is spent on them.
package validation

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/croftbox/vidpipe/internal/domain"
)

// sniffLen is the number of leading bytes inspected for MIME detection.
// Matching on a bounded prefix keeps validation cheap for large uploads.
const sniffLen = 2048

// DefaultAllowedMIMETypes is the stock container allow-list.
var DefaultAllowedMIMETypes = []string{
	"video/mp4",
	"video/quicktime",
	"video/x-msvideo",
	"video/x-matroska",
	"video/webm",
}

// Prober performs the structural container parse that catches files whose
// magic bytes lie about their contents.
type Prober interface {
	Probe(ctx context.Context, src []byte) (*domain.ProbeResult, error)
}

type Validator struct {
	allowed map[string]bool
	prober  Prober
}

func NewValidator(allowedMIMETypes []string, prober Prober) *Validator {
	allowed := make(map[string]bool, len(allowedMIMETypes))
	for _, m := range allowedMIMETypes {
		allowed[m] = true
	}
	return &Validator{allowed: allowed, prober: prober}
}

// Result carries the detected MIME type and, when a prober is configured,
// the structural probe output so callers don't have to probe twice.
type Result struct {
	MIME  string
	Probe *domain.ProbeResult
}

// Validate confirms the buffer holds a supported, structurally sound video
// container. Deterministic given identical bytes; no side effects.
func (v *Validator) Validate(ctx context.Context, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyInput
	}

	mime := DetectMIME(data)
	if !v.allowed[mime] {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, mime)
	}

	res := &Result{MIME: mime}
	if v.prober != nil {
		probe, err := v.prober.Probe(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedContainer, err)
		}
		res.Probe = probe
	}

	return res, nil
}

// DetectMIME sniffs the container type from the buffer's leading bytes.
// Video signatures http.DetectContentType misses are handled first.
func DetectMIME(data []byte) string {
	buf := data
	if len(buf) > sniffLen {
		buf = buf[:sniffLen]
	}
	if mime := detectVideoMagicBytes(buf); mime != "" {
		return mime
	}
	return http.DetectContentType(buf)
}

func detectVideoMagicBytes(buf []byte) string {
	if len(buf) < 12 {
		return ""
	}

	// MP4/QuickTime: ftyp box at offset 4 ([size][ftyp][brand]).
	if buf[4] == 'f' && buf[5] == 't' && buf[6] == 'y' && buf[7] == 'p' {
		if string(buf[8:12]) == "qt  " {
			return "video/quicktime"
		}
		return "video/mp4"
	}

	// AVI: RIFF....AVI<space>
	if bytes.HasPrefix(buf, []byte("RIFF")) && bytes.Equal(buf[8:12], []byte("AVI ")) {
		return "video/x-msvideo"
	}

	// WebM/Matroska share the EBML header (0x1A 0x45 0xDF 0xA3); the DocType
	// element within the header distinguishes them.
	if buf[0] == 0x1A && buf[1] == 0x45 && buf[2] == 0xDF && buf[3] == 0xA3 {
		if bytes.Contains(buf, []byte("webm")) {
			return "video/webm"
		}
		return "video/x-matroska"
	}

	return ""
}
