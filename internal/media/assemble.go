package media

import (
	"fmt"
	"sort"
)

type (
	// FormatDto is the public projection of a single candidate.
	FormatDto struct {
		Label string `json:"label"`
		Size  string `json:"size"`
		URL   string `json:"url"`
		Type  string `json:"type"`
	}

	// Payload is the full response body for an extraction request.
	// Title and thumbnail are passed through from the extraction tool
	// and omitted when the upstream did not provide them.
	Payload struct {
		Title     string      `json:"title,omitempty"`
		Thumbnail string      `json:"thumbnail,omitempty"`
		Formats   []FormatDto `json:"formats"`
	}
)

var sizeUnits = []string{"KB", "MB", "GB", "TB"}

// HumanSize formats a byte count for display. A nil size renders as
// "Unknown"; values under 1024 render as whole bytes; larger values are
// repeatedly divided by 1024 through KB..TB and formatted to exactly
// one decimal place.
func HumanSize(bytes *int64) string {
	if bytes == nil {
		return "Unknown"
	}

	value := float64(*bytes)
	if value < 1024 && value > -1024 {
		return fmt.Sprintf("%d B", *bytes)
	}

	unit := 0
	value /= 1024
	for (value >= 1024 || value <= -1024) && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}

	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}

// Assemble maps resolved candidates in to the public response shape,
// applying the deterministic display ordering: video before audio
// before image, then descending resolved size within each type.
// Unresolved sizes sort as zero; ties keep input order.
func Assemble(title string, thumbnail string, candidates []*Candidate) *Payload {
	ordered := make([]*Candidate, len(candidates))
	copy(ordered, candidates)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Type != ordered[j].Type {
			return ordered[i].Type < ordered[j].Type
		}

		return sortableSize(ordered[i]) > sortableSize(ordered[j])
	})

	formats := make([]FormatDto, 0, len(ordered))
	for _, candidate := range ordered {
		formats = append(formats, FormatDto{
			Label: candidate.Label,
			Size:  HumanSize(candidate.Filesize),
			URL:   candidate.URL,
			Type:  candidate.Type.String(),
		})
	}

	return &Payload{
		Title:     title,
		Thumbnail: thumbnail,
		Formats:   formats,
	}
}

func sortableSize(candidate *Candidate) int64 {
	if candidate.Filesize == nil {
		return 0
	}

	return *candidate.Filesize
}
