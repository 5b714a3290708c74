package media

// MediaType is the coarse classification assigned to a normalized
// format candidate.
type MediaType int

const (
	VIDEO MediaType = iota
	AUDIO
	IMAGE
)

func (e MediaType) String() string {
	return []string{
		"video",
		"audio",
		"image",
	}[e]
}

// RawFormatRecord is a single format descriptor as produced by the
// external extraction tool. Every field is optional; absence is the
// common case and must never be treated as an error.
type RawFormatRecord struct {
	URL            string  `json:"url"`
	FormatID       string  `json:"format_id"`
	Format         string  `json:"format"`
	FormatNote     string  `json:"format_note"`
	Ext            string  `json:"ext"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Height         int     `json:"height"`
	Width          int     `json:"width"`
	ABR            float64 `json:"abr"`
	Filesize       *int64  `json:"filesize"`
	FilesizeApprox *int64  `json:"filesize_approx"`
}

// ExtractionMetadata is the extraction tool's output for a single page:
// a title, an optional thumbnail and an ordered list of raw format
// records. Treated as untrusted, partially-malformed input.
type ExtractionMetadata struct {
	Title     string            `json:"title"`
	Thumbnail string            `json:"thumbnail"`
	Formats   []RawFormatRecord `json:"formats"`
}

// Candidate is a validated, deduplicated, classified media format
// derived from a raw record. It is owned by the pipeline for the
// duration of one request; only the size resolver mutates it (to fill
// in a missing Filesize).
type Candidate struct {
	URL      string
	Type     MediaType
	Label    string
	Ext      string
	Filesize *int64
}
