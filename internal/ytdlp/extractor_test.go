package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseMetadata(t *testing.T) {
	tests := []struct {
		summary       string
		output        string
		shouldErr     bool
		expectedTitle string
	}{
		{
			summary:       "Single JSON object",
			output:        `{"title":"A Video","formats":[{"url":"https://h/v.mp4"}]}`,
			expectedTitle: "A Video",
		},
		{
			summary: "Newline-delimited objects take the first parseable",
			output: `{"title":"First","formats":[]}
{"title":"Second","formats":[]}`,
			expectedTitle: "First",
		},
		{
			summary: "Diagnostic noise before the JSON object",
			output: `some banner text
{"title":"After Noise","formats":[]}`,
			expectedTitle: "After Noise",
		},
		{
			summary: "Pretty-printed object spanning multiple lines",
			output: `{
	"title": "Pretty",
	"formats": []
}`,
			expectedTitle: "Pretty",
		},
		{
			summary:   "Empty output",
			output:    "",
			shouldErr: true,
		},
		{
			summary:   "Non-JSON output",
			output:    "ERROR: unsupported URL",
			shouldErr: true,
		},
		{
			summary:   "Truncated JSON",
			output:    `{"title":"Broken"`,
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			metadata, err := parseMetadata([]byte(tt.output))
			if tt.shouldErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedTitle, metadata.Title)
		})
	}
}

// writeFakeTool drops an executable shell script standing in for the
// external extraction binary.
func writeFakeTool(t *testing.T, script string) string {
	path := filepath.Join(t.TempDir(), "fake-yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func Test_Extract_ParsesToolOutput(t *testing.T) {
	tool := writeFakeTool(t, `echo '{"title":"Tool Title","thumbnail":"https://h/t.jpg","formats":[{"url":"https://h/v.mp4","height":720}]}'`)
	extractor := NewExtractor(Config{BinaryPath: tool, TimeoutSecs: 5})

	metadata, err := extractor.Extract(context.Background(), "https://example.com/watch?v=1")

	require.NoError(t, err)
	assert.Equal(t, "Tool Title", metadata.Title)
	assert.Equal(t, "https://h/t.jpg", metadata.Thumbnail)
	require.Len(t, metadata.Formats, 1)
	assert.Equal(t, 720, metadata.Formats[0].Height)
}

func Test_Extract_NonZeroExitIsHardFailure(t *testing.T) {
	tool := writeFakeTool(t, `echo 'ERROR: no media found' >&2; exit 1`)
	extractor := NewExtractor(Config{BinaryPath: tool, TimeoutSecs: 5})

	_, err := extractor.Extract(context.Background(), "https://example.com/watch?v=2")
	assert.Error(t, err)
}

func Test_Extract_UnparseableOutputIsHardFailure(t *testing.T) {
	tool := writeFakeTool(t, `echo 'not json at all'`)
	extractor := NewExtractor(Config{BinaryPath: tool, TimeoutSecs: 5})

	_, err := extractor.Extract(context.Background(), "https://example.com/watch?v=3")
	assert.Error(t, err)
}

func Test_Extract_MissingBinary(t *testing.T) {
	extractor := NewExtractor(Config{BinaryPath: "/nonexistent/yt-dlp", TimeoutSecs: 5})

	_, err := extractor.Extract(context.Background(), "https://example.com/watch?v=4")
	assert.Error(t, err)
}

func Test_Version(t *testing.T) {
	tool := writeFakeTool(t, `echo '2025.01.15'`)
	extractor := NewExtractor(Config{BinaryPath: tool, TimeoutSecs: 5})

	version, err := extractor.Version(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "2025.01.15", version)
}
