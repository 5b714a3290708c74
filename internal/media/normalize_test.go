package media_test

import (
	"testing"

	"github.com/nsprime0-ui/prime-downloader-backend/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sizePtr(v int64) *int64 { return &v }

func Test_Normalize_FiltersNonWebRecords(t *testing.T) {
	tests := []struct {
		summary string
		raw     media.RawFormatRecord
		kept    bool
	}{
		{summary: "Missing url", raw: media.RawFormatRecord{Ext: "mp4"}, kept: false},
		{summary: "FTP scheme", raw: media.RawFormatRecord{URL: "ftp://host/f"}, kept: false},
		{summary: "Relative url", raw: media.RawFormatRecord{URL: "/video.mp4"}, kept: false},
		{summary: "Unparseable url", raw: media.RawFormatRecord{URL: "http://exa mple.com/\x7f"}, kept: false},
		{summary: "HTTP scheme", raw: media.RawFormatRecord{URL: "http://host/f.mp4"}, kept: true},
		{summary: "HTTPS scheme", raw: media.RawFormatRecord{URL: "https://host/f.mp4"}, kept: true},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			candidates := media.Normalize([]media.RawFormatRecord{tt.raw})
			if tt.kept {
				assert.Len(t, candidates, 1, "Normalize() expected to keep the record")
			} else {
				assert.Empty(t, candidates, "Normalize() expected to drop the record")
			}
		})
	}
}

func Test_Normalize_DeduplicatesByURL_FirstOccurrenceWins(t *testing.T) {
	candidates := media.Normalize([]media.RawFormatRecord{
		{URL: "https://a/x.mp4", Height: 720, VCodec: "h264"},
		{URL: "https://a/x.mp4", Height: 480},
		{URL: "https://a/y.mp4", Height: 480},
	})

	require.Len(t, candidates, 2)
	assert.Equal(t, "720p", candidates[0].Label)
	assert.Equal(t, media.VIDEO, candidates[0].Type)
	assert.Equal(t, "480p", candidates[1].Label)

	seen := make(map[string]struct{})
	for _, candidate := range candidates {
		_, duplicate := seen[candidate.URL]
		assert.Falsef(t, duplicate, "candidate url %s appears more than once", candidate.URL)
		seen[candidate.URL] = struct{}{}
	}
}

func Test_Normalize_Classification(t *testing.T) {
	tests := []struct {
		summary  string
		raw      media.RawFormatRecord
		expected media.MediaType
	}{
		{
			summary:  "Explicit none vcodec is audio regardless of extension",
			raw:      media.RawFormatRecord{URL: "https://h/a.mp4", VCodec: "none", Ext: "mp4"},
			expected: media.AUDIO,
		},
		{
			summary:  "Audio codec with no video codec is audio",
			raw:      media.RawFormatRecord{URL: "https://h/a.m4a", ACodec: "mp4a.40.2"},
			expected: media.AUDIO,
		},
		{
			summary:  "Audio hint in format text is audio",
			raw:      media.RawFormatRecord{URL: "https://h/b", Format: "251 - audio only (medium)"},
			expected: media.AUDIO,
		},
		{
			summary:  "Png extension with no codec hints is image",
			raw:      media.RawFormatRecord{URL: "https://h/c.png", Ext: "png"},
			expected: media.IMAGE,
		},
		{
			summary:  "Webp extension is image",
			raw:      media.RawFormatRecord{URL: "https://h/d.webp", Ext: "WEBP"},
			expected: media.IMAGE,
		},
		{
			summary:  "Video codec with image extension is still video",
			raw:      media.RawFormatRecord{URL: "https://h/e", VCodec: "h264", ACodec: "none", Ext: "mp4"},
			expected: media.VIDEO,
		},
		{
			summary:  "No hints at all defaults to video",
			raw:      media.RawFormatRecord{URL: "https://h/f"},
			expected: media.VIDEO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			candidates := media.Normalize([]media.RawFormatRecord{tt.raw})
			require.Len(t, candidates, 1)
			assert.Equal(t, tt.expected, candidates[0].Type)
		})
	}
}

func Test_Normalize_Labels(t *testing.T) {
	tests := []struct {
		summary  string
		raw      media.RawFormatRecord
		expected string
	}{
		{
			summary:  "Format note combined with height",
			raw:      media.RawFormatRecord{URL: "https://h/a", FormatNote: "Premium", Height: 1080},
			expected: "Premium 1080p",
		},
		{
			summary:  "Height alone",
			raw:      media.RawFormatRecord{URL: "https://h/b", Height: 720},
			expected: "720p",
		},
		{
			summary:  "Free-text format descriptor",
			raw:      media.RawFormatRecord{URL: "https://h/c", Format: "18 - 640x360"},
			expected: "18 - 640x360",
		},
		{
			summary:  "Uppercased extension",
			raw:      media.RawFormatRecord{URL: "https://h/d", Ext: "webm"},
			expected: "WEBM",
		},
		{
			summary:  "Literal Unknown when nothing is present",
			raw:      media.RawFormatRecord{URL: "https://h/e"},
			expected: "Unknown",
		},
		{
			summary:  "Whitespace-only descriptor falls through",
			raw:      media.RawFormatRecord{URL: "https://h/f", Format: "   ", Ext: "ogg"},
			expected: "OGG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			candidates := media.Normalize([]media.RawFormatRecord{tt.raw})
			require.Len(t, candidates, 1)
			assert.Equal(t, tt.expected, candidates[0].Label)
			assert.NotEmpty(t, candidates[0].Label)
		})
	}
}

func Test_Normalize_DeclaredSizes(t *testing.T) {
	tests := []struct {
		summary  string
		raw      media.RawFormatRecord
		expected *int64
	}{
		{
			summary:  "Exact filesize preferred",
			raw:      media.RawFormatRecord{URL: "https://h/a", Filesize: sizePtr(100), FilesizeApprox: sizePtr(200)},
			expected: sizePtr(100),
		},
		{
			summary:  "Approximate filesize as fallback",
			raw:      media.RawFormatRecord{URL: "https://h/b", FilesizeApprox: sizePtr(200)},
			expected: sizePtr(200),
		},
		{
			summary:  "Negative declared size is ignored",
			raw:      media.RawFormatRecord{URL: "https://h/c", Filesize: sizePtr(-1)},
			expected: nil,
		},
		{
			summary:  "No declared size stays unresolved",
			raw:      media.RawFormatRecord{URL: "https://h/d"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			candidates := media.Normalize([]media.RawFormatRecord{tt.raw})
			require.Len(t, candidates, 1)
			if tt.expected == nil {
				assert.Nil(t, candidates[0].Filesize)
			} else {
				require.NotNil(t, candidates[0].Filesize)
				assert.Equal(t, *tt.expected, *candidates[0].Filesize)
			}
		})
	}
}

func Test_Normalize_PreservesInputOrder(t *testing.T) {
	candidates := media.Normalize([]media.RawFormatRecord{
		{URL: "https://h/1"},
		{URL: "ftp://h/skip"},
		{URL: "https://h/2"},
		{URL: "https://h/1"},
		{URL: "https://h/3"},
	})

	require.Len(t, candidates, 3)
	assert.Equal(t, "https://h/1", candidates[0].URL)
	assert.Equal(t, "https://h/2", candidates[1].URL)
	assert.Equal(t, "https://h/3", candidates[2].URL)
}
