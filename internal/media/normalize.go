package media

import (
	"fmt"
	"net/url"
	"strings"
)

// stillImageExts is the set of extensions which classify a candidate as
// a still image when no audio hint takes priority.
var stillImageExts = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"gif":  {},
}

// Normalize converts the raw format records from the extraction tool in
// to validated, deduplicated, classified candidates. Records lacking a
// well-formed http(s) URL are silently dropped, duplicate URLs keep the
// first occurrence only, and input order is preserved throughout.
func Normalize(rawFormats []RawFormatRecord) []*Candidate {
	candidates := make([]*Candidate, 0, len(rawFormats))
	seen := make(map[string]struct{}, len(rawFormats))

	for _, raw := range rawFormats {
		if !isWebURL(raw.URL) {
			continue
		}
		if _, exists := seen[raw.URL]; exists {
			continue
		}
		seen[raw.URL] = struct{}{}

		candidates = append(candidates, &Candidate{
			URL:      raw.URL,
			Type:     classify(raw),
			Label:    buildLabel(raw),
			Ext:      raw.Ext,
			Filesize: declaredSize(raw),
		})
	}

	return candidates
}

// isWebURL reports whether the provided string parses as a URI with an
// http or https scheme. Anything else is excluded from the pipeline;
// this is filtering policy, not a failure.
func isWebURL(raw string) bool {
	if raw == "" {
		return false
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

// classify assigns the best-effort media type for a raw record. The
// rules are evaluated in priority order and the first match wins:
//   - an explicit none-vcodec marker, or an audio codec with no video
//     codec, means audio
//   - an "audio" hint inside the free-text format descriptor means audio
//   - a known still-image extension means image
//   - everything else is video
func classify(raw RawFormatRecord) MediaType {
	hasAudioCodec := raw.ACodec != "" && raw.ACodec != "none"
	if raw.VCodec == "none" || (hasAudioCodec && raw.VCodec == "") {
		return AUDIO
	}

	if strings.Contains(strings.ToLower(raw.Format), "audio") {
		return AUDIO
	}

	if _, ok := stillImageExts[strings.ToLower(raw.Ext)]; ok {
		return IMAGE
	}

	return VIDEO
}

// buildLabel derives the human-readable label for a candidate. The
// fallback chain guarantees a non-empty result: format note combined
// with the height, the height alone, the free-text format descriptor,
// the uppercased extension, and finally the literal "Unknown".
func buildLabel(raw RawFormatRecord) string {
	if raw.Height > 0 {
		if note := strings.TrimSpace(raw.FormatNote); note != "" {
			return fmt.Sprintf("%s %dp", note, raw.Height)
		}

		return fmt.Sprintf("%dp", raw.Height)
	}

	if format := strings.TrimSpace(raw.Format); format != "" {
		return format
	}
	if ext := strings.TrimSpace(raw.Ext); ext != "" {
		return strings.ToUpper(ext)
	}

	return "Unknown"
}

// declaredSize returns the size declared by the record itself,
// preferring the exact filesize over the approximation. Nil means the
// size resolver should probe for it.
func declaredSize(raw RawFormatRecord) *int64 {
	if raw.Filesize != nil && *raw.Filesize >= 0 {
		size := *raw.Filesize
		return &size
	}
	if raw.FilesizeApprox != nil && *raw.FilesizeApprox >= 0 {
		size := *raw.FilesizeApprox
		return &size
	}

	return nil
}
