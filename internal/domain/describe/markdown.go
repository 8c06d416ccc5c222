// Package describe renders a human readable summary of a compilation.
package describe

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/forPelevin/clipmash/internal/types"
)

const maxTitleLen = 45

type Video struct {
	ID    types.VideoID
	Title string
}

type clipRow struct {
	Start, End time.Duration
	Marker     string
	Video      string
}

// Markdown lists every clip with its position in the final compilation and
// the source videos it was cut from.
func Markdown(title string, clips []types.Clip, videos []Video) string {
	titles := make(map[types.VideoID]string, len(videos))
	for _, v := range videos {
		titles[v.ID] = videoTitle(v)
	}

	var rows []clipRow
	var pos time.Duration
	for _, c := range clips {
		end := pos + dur(c.Duration())
		name, ok := titles[c.VideoID]
		if !ok {
			name = "unknown"
		}
		rows = append(rows, clipRow{Start: pos, End: end, Marker: c.MarkerTitle, Video: name})
		pos = end
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Compilation '%s'\n\n", title)
	fmt.Fprintf(&b, "- Clips: **%d**\n", len(rows))
	fmt.Fprintf(&b, "- Duration: **%s**\n\n", timestamp(pos))

	b.WriteString("## Clips\n\n")
	b.WriteString("| Video | Description | Start | End |\n| ----- | ----------- | ----- | --- |\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(r.Video), cell(r.Marker), timestamp(r.Start), timestamp(r.End))
	}

	b.WriteString("\n## Videos\n\n")
	b.WriteString("| Source | Title |\n| ------ | ----- |\n")
	for _, v := range videos {
		fmt.Fprintf(&b, "| %s | %s |\n", sourceLabel(v.ID.Source), cell(videoTitle(v)))
	}
	return b.String()
}

func videoTitle(v Video) string {
	t := strings.TrimSpace(v.Title)
	if t == "" {
		t = v.ID.ID
	}
	if r := []rune(t); len(r) > maxTitleLen {
		t = string(r[:maxTitleLen]) + "…"
	}
	return t
}

func sourceLabel(s types.VideoSource) string {
	switch s {
	case types.SourceFolder:
		return "Local folder"
	case types.SourceDownload:
		return "Downloaded"
	case types.SourceStash:
		return "Stash"
	default:
		return string(s)
	}
}

// timestamp formats d as HH:MM:SS.mmm.
func timestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hs, ms, s, int(d/time.Millisecond))
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func dur(sec float64) time.Duration { return time.Duration(math.Round(sec * float64(time.Second))) }
