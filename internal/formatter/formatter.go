// package formatter renders playlist comparisons to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

// Supported export formats
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ValidFormat reports whether format is one of the supported export formats.
func ValidFormat(format string) bool {
	switch format {
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText, "text":
		return true
	}
	return false
}

// ComparisonToCSV writes one row per occurrence of both sides with columns:
// Side, Occurrence, Position, Presence, URI, Name, Artists, Duration
func ComparisonToCSV(cmp *models.PlaylistComparison) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Side", "Occurrence", "Position", "Presence", "URI", "Name", "Artists", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	write := func(side models.Side, tracks []models.ComparableTrack) error {
		for _, track := range tracks {
			record := []string{
				string(side),
				track.OccurrenceID,
				strconv.Itoa(track.Position),
				string(track.Presence),
				track.URI,
				track.Name,
				strings.Join(track.Artists, "; "),
				shared.FormatDuration(track.DurationMS),
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	}

	if err := write(models.SideA, cmp.TracksA); err != nil {
		return nil, err
	}
	if err := write(models.SideB, cmp.TracksB); err != nil {
		return nil, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ComparisonToMarkdown renders a comparison with an optional cover image of playlist A
func ComparisonToMarkdown(cmp *models.PlaylistComparison, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s vs %s\n\n", cmp.PlaylistA.Name, cmp.PlaylistB.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**%s**: %d tracks\n", cmp.PlaylistA.Name, len(cmp.TracksA))
	fmt.Fprintf(&buf, "**%s**: %d tracks\n", cmp.PlaylistB.Name, len(cmp.TracksB))
	fmt.Fprintf(&buf, "**In both**: %d\n\n", len(cmp.Common))

	section := func(title string, tracks []models.ComparableTrack) {
		fmt.Fprintf(&buf, "## %s (%d)\n\n", title, len(tracks))
		if len(tracks) == 0 {
			buf.WriteString("_None_\n\n")
			return
		}
		for _, track := range tracks {
			fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", track.Position+1, artistLine(track), track.Name, shared.FormatDuration(track.DurationMS))
		}
		buf.WriteString("\n")
	}

	section("Only in "+cmp.PlaylistA.Name, cmp.UniqueToA)
	section("Only in "+cmp.PlaylistB.Name, cmp.UniqueToB)
	section("In both", cmp.Common)

	return buf.Bytes(), nil
}

// ComparisonToText renders a comparison as plain text
func ComparisonToText(cmp *models.PlaylistComparison) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "A: %s (%d tracks)\n", cmp.PlaylistA.Name, len(cmp.TracksA))
	fmt.Fprintf(&buf, "B: %s (%d tracks)\n", cmp.PlaylistB.Name, len(cmp.TracksB))
	fmt.Fprintf(&buf, "Only in A: %d, only in B: %d, in both: %d\n", len(cmp.UniqueToA), len(cmp.UniqueToB), len(cmp.Common))

	for _, group := range []struct {
		label  string
		tracks []models.ComparableTrack
	}{
		{"Only in A", cmp.UniqueToA},
		{"Only in B", cmp.UniqueToB},
	} {
		if len(group.tracks) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n%s:\n", group.label)
		for _, track := range group.tracks {
			fmt.Fprintf(&buf, "  %d. %s - %s\n", track.Position+1, artistLine(track), track.Name)
		}
	}

	return buf.Bytes(), nil
}

// Render encodes a comparison in format. Markdown is rendered without a cover image.
func Render(cmp *models.PlaylistComparison, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ComparisonToCSV(cmp)
	case FormatMarkdown:
		return ComparisonToMarkdown(cmp, "")
	case FormatText, "text":
		return ComparisonToText(cmp)
	case FormatJSON, "":
		return shared.MarshalJSON(cmp, true)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ExportResult lists the files created by [WriteComparison]
type ExportResult struct {
	Files      []string
	CoverImage string
}

// WriteComparison writes a comparison under outputDir, named after both playlist ids.
//
// Markdown exports get a dedicated {a}_vs_{b}/ directory with README.md and, when withCover is set,
// the first cover image of playlist A as cover.jpg.
func WriteComparison(cmp *models.PlaylistComparison, format, outputDir string, withCover bool) (*ExportResult, error) {
	if outputDir == "" {
		outputDir = "."
	}
	base := fmt.Sprintf("%s_vs_%s", cmp.PlaylistA.ID, cmp.PlaylistB.ID)
	result := &ExportResult{Files: []string{}}

	if format != FormatMarkdown {
		data, err := Render(cmp, format)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(outputDir, base+"."+extension(format))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s file: %w", format, err)
		}
		result.Files = append(result.Files, path)
		return result, nil
	}

	dir := filepath.Join(outputDir, base)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var coverImageFilename string
	if withCover && len(cmp.PlaylistA.Images) > 0 {
		imageData, err := DownloadImage(cmp.PlaylistA.Images[0].URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(dir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ComparisonToMarkdown(cmp, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func extension(format string) string {
	switch format {
	case FormatCSV:
		return "csv"
	case FormatText, "text":
		return "txt"
	default:
		return "json"
	}
}

func artistLine(track models.ComparableTrack) string {
	if len(track.Artists) == 0 {
		return "Unknown Artist"
	}
	return strings.Join(track.Artists, ", ")
}
