// Copyright 2024-2026 Aiku AI

package webhook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aiku/yarrbot/pkg/message"
)

func (t *Transformer) renderSonarr(evt SonarrEvent) message.Data {
	switch e := evt.(type) {
	case SonarrTest:
		return t.sonarrTest(e)
	case SonarrGrab:
		return t.sonarrGrab(e)
	case SonarrDownload:
		return t.sonarrDownload(e)
	case SonarrRename:
		return t.sonarrRename(e)
	case SonarrSeriesDelete:
		return t.sonarrSeriesDelete(e)
	case SonarrEpisodeFileDelete:
		return t.sonarrEpisodeFileDelete(e)
	case SonarrHealth:
		return t.renderHealth("Sonarr", e.Level, e.Message, e.Type, e.WikiURL)
	default:
		// DecodeSonarr fails closed, so this is unreachable; keep the
		// compiler honest anyway.
		return message.FromText("Received an unsupported Sonarr event.")
	}
}

// padEpisodeNumber zero-pads season and episode numbers to two digits.
// Numbers of three or more digits pass through unchanged.
func padEpisodeNumber(n int) string {
	if n < 100 {
		return fmt.Sprintf("%02d", n)
	}
	return strconv.Itoa(n)
}

func addEpisodes(b *message.Builder, episodes []SonarrEpisode) {
	if len(episodes) == 0 {
		b.AddLine("No episodes specified.")
		return
	}
	for _, episode := range episodes {
		b.AddKeyValue("Season", padEpisodeNumber(episode.SeasonNumber))
		b.AddKeyValue("Episode", padEpisodeNumber(episode.EpisodeNumber))
		b.AddKeyValue("Title", episode.Title)
		if episode.AirDateUTC != nil {
			b.AddKeyValue("Air Date (UTC)", episode.AirDateUTC.Format("2006-01-02"))
		}
		b.Break()
	}
}

func (t *Transformer) sonarrTest(e SonarrTest) message.Data {
	var b message.Builder
	t.addHeading(&b, "Sonarr Test", e.Series.Title)
	addEpisodes(&b, e.Episodes)
	return b.Message()
}

func (t *Transformer) sonarrGrab(e SonarrGrab) message.Data {
	var b message.Builder
	t.addHeading(&b, "Series Grabbed", e.Series.Title)
	addQuality(&b, e.Release.Quality)
	b.Break()
	addEpisodes(&b, e.Episodes)
	return b.Message()
}

func (t *Transformer) sonarrDownload(e SonarrDownload) message.Data {
	var b message.Builder
	t.addHeading(&b, "Series Downloaded", e.Series.Title)
	addQuality(&b, e.EpisodeFile.Quality)
	b.AddKeyValue("Is Upgrade", yesNo(e.IsUpgrade))
	b.Break()
	addEpisodes(&b, e.Episodes)
	return b.Message()
}

// renamedFiles renders the rename list: a comma-separated sequence in
// plain text, a <ul> of <code> entries in HTML.
type renamedFiles []SonarrRenamedEpisodeFile

func (r renamedFiles) Plain(breakStr string) string {
	if len(r) == 0 {
		return fmt.Sprintf("No rename data found. %s", breakStr)
	}
	entries := make([]string, len(r))
	for i, item := range r {
		entries[i] = renameEntry(item, i)
	}
	return fmt.Sprintf(" %s %s", strings.Join(entries, ", "), breakStr)
}

func (r renamedFiles) HTML(breakStr string) string {
	if len(r) == 0 {
		return fmt.Sprintf("No rename data found. %s", breakStr)
	}
	var sb strings.Builder
	sb.WriteString(" <ul>")
	for i, item := range r {
		if item.PreviousRelativePath != nil && item.RelativePath != nil {
			sb.WriteString("<li><code>")
			sb.WriteString(renameEntry(item, i))
			sb.WriteString("</code></li>")
		} else {
			sb.WriteString("<li>")
			sb.WriteString(renameEntry(item, i))
			sb.WriteString("</li>")
		}
	}
	sb.WriteString("</ul> ")
	sb.WriteString(breakStr)
	return sb.String()
}

func renameEntry(item SonarrRenamedEpisodeFile, index int) string {
	if item.PreviousRelativePath != nil && item.RelativePath != nil {
		return fmt.Sprintf("%s --> %s", *item.PreviousRelativePath, *item.RelativePath)
	}
	return fmt.Sprintf("(File #%d was missing path data)", index+1)
}

func (t *Transformer) sonarrRename(e SonarrRename) message.Data {
	var b message.Builder
	t.addHeading(&b, "Series Renamed", e.Series.Title)
	b.AddPart(renamedFiles(e.RenamedEpisodeFiles))
	return b.Message()
}

func (t *Transformer) sonarrSeriesDelete(e SonarrSeriesDelete) message.Data {
	var b message.Builder
	t.addHeading(&b, "Series Deleted", e.Series.Title)
	b.AddKeyValue("Files Deleted", yesNo(e.DeletedFiles))
	return b.Message()
}

func (t *Transformer) sonarrEpisodeFileDelete(e SonarrEpisodeFileDelete) message.Data {
	var b message.Builder
	t.addHeading(&b, "Series Episode Files Deleted", e.Series.Title)
	b.AddKeyValue("Reason", orFallback(e.DeleteReason, fallbackReason))
	if e.EpisodeFile.Quality != nil && e.EpisodeFile.Quality.Quality.Name != "" {
		name := e.EpisodeFile.Quality.Quality.Name
		addQuality(&b, &name)
	} else {
		addQuality(&b, nil)
	}
	b.Break()
	addEpisodes(&b, e.Episodes)
	return b.Message()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
