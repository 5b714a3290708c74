package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/nsprime0-ui/prime-downloader-backend/internal/media"
	"github.com/nsprime0-ui/prime-downloader-backend/pkg/logger"
	"github.com/pkg/errors"
)

var log = logger.Get("YtDlp")

// Config controls how the external extraction tool is invoked.
type Config struct {
	BinaryPath  string `yaml:"binary_path" env:"YTDLP_PATH" env-default:"yt-dlp"`
	TimeoutSecs int    `yaml:"timeout" env:"YTDLP_TIMEOUT" env-default:"60"`
}

// Extractor shells out to yt-dlp to fetch structured metadata for a
// media page URL. A non-zero exit or unparseable output is a hard
// failure for the request; diagnostic text on stderr is logged only.
type Extractor struct {
	config Config
}

func NewExtractor(config Config) *Extractor {
	return &Extractor{config: config}
}

// Extract invokes the tool requesting JSON-only output for the target
// URL and parses the resulting metadata. The tool may emit a single
// JSON object or multiple newline-delimited objects; the first
// parseable object beginning with '{' is taken.
func (extractor *Extractor) Extract(ctx context.Context, target string) (*media.ExtractionMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(extractor.config.TimeoutSecs)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, extractor.config.BinaryPath,
		"-J", "--no-warnings", "--skip-download", target)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if diagnostic := strings.TrimSpace(stderr.String()); diagnostic != "" {
			log.Emit(logger.WARNING, "Extraction tool stderr for %s: %s\n", target, diagnostic)
		}

		return nil, errors.Wrapf(err, "extraction tool failed for %s", target)
	}

	if diagnostic := strings.TrimSpace(stderr.String()); diagnostic != "" {
		log.Emit(logger.DEBUG, "Extraction tool stderr for %s: %s\n", target, diagnostic)
	}

	metadata, err := parseMetadata(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	return metadata, nil
}

// Version reports the extraction tool's version string, used to check
// the tool is installed and reachable.
func (extractor *Extractor) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, extractor.config.BinaryPath, "--version").Output()
	if err != nil {
		return "", errors.Wrap(err, "extraction tool is not reachable")
	}

	return strings.TrimSpace(string(out)), nil
}

// parseMetadata locates and decodes the first JSON object in the tool's
// standard output. Playlist-style invocations emit one object per line,
// so each line beginning with '{' is attempted in order.
func parseMetadata(output []byte) (*media.ExtractionMetadata, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}

		var metadata media.ExtractionMetadata
		if err := json.Unmarshal(line, &metadata); err == nil {
			return &metadata, nil
		}
	}

	// A single pretty-printed object spans multiple lines; fall back to
	// decoding the whole buffer.
	trimmed := bytes.TrimSpace(output)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var metadata media.ExtractionMetadata
		if err := json.Unmarshal(trimmed, &metadata); err == nil {
			return &metadata, nil
		}
	}

	return nil, errors.New("extraction tool produced no parseable metadata")
}
