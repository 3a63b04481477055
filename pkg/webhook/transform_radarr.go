// Copyright 2024-2026 Aiku AI

package webhook

import (
	"fmt"
	"time"

	"github.com/aiku/yarrbot/pkg/message"
)

func (t *Transformer) renderRadarr(evt RadarrEvent) message.Data {
	switch e := evt.(type) {
	case RadarrTest:
		return t.radarrTest(e)
	case RadarrGrab:
		return t.radarrGrab(e)
	case RadarrDownload:
		return t.radarrDownload(e)
	case RadarrRename:
		return t.radarrRename(e)
	case RadarrMovieDelete:
		return t.radarrMovieDelete(e)
	case RadarrMovieFileDelete:
		return t.radarrMovieFileDelete(e)
	case RadarrHealth:
		return t.renderHealth("Radarr", e.Level, e.Message, e.Type, e.WikiURL)
	default:
		return message.FromText("Received an unsupported Radarr event.")
	}
}

// remoteTitle renders "Title (Year)" from the remote metadata, omitting
// the year when Radarr didn't send one.
func remoteTitle(remote RadarrRemoteMovie) string {
	if remote.Year != nil {
		return fmt.Sprintf("%s (%d)", remote.Title, *remote.Year)
	}
	return remote.Title
}

// movieTitle renders "Title (Year)" using the library entry's release
// date for the year.
func movieTitle(movie RadarrMovie) string {
	if date, ok := parseReleaseDate(movie.ReleaseDate); ok {
		return fmt.Sprintf("%s (%s)", movie.Title, date.Format("2006"))
	}
	return movie.Title
}

func parseReleaseDate(raw *string) (time.Time, bool) {
	if raw == nil || *raw == "" {
		return time.Time{}, false
	}
	date, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// addReleaseDate adds the Release Date line only when the payload carried
// a parseable date; there is no fallback line for this field.
func addReleaseDate(b *message.Builder, movie RadarrMovie) {
	if date, ok := parseReleaseDate(movie.ReleaseDate); ok {
		b.AddKeyValue("Release Date", date.Format("2006-01-02"))
	}
}

func (t *Transformer) radarrTest(e RadarrTest) message.Data {
	var b message.Builder
	t.addHeading(&b, "Radarr Test", remoteTitle(e.RemoteMovie))
	addReleaseDate(&b, e.Movie)
	addQuality(&b, e.Release.Quality)
	return b.Message()
}

func (t *Transformer) radarrGrab(e RadarrGrab) message.Data {
	var b message.Builder
	t.addHeading(&b, "Movie Grabbed", remoteTitle(e.RemoteMovie))
	addReleaseDate(&b, e.Movie)
	addQuality(&b, e.Release.Quality)
	return b.Message()
}

func (t *Transformer) radarrDownload(e RadarrDownload) message.Data {
	var b message.Builder
	t.addHeading(&b, "Movie Downloaded", remoteTitle(e.RemoteMovie))
	addReleaseDate(&b, e.Movie)
	addQuality(&b, e.MovieFile.Quality)
	b.AddKeyValue("Is Upgrade", yesNo(e.IsUpgrade))
	return b.Message()
}

func (t *Transformer) radarrRename(e RadarrRename) message.Data {
	var b message.Builder
	t.addHeading(&b, "Movie Renamed", movieTitle(e.Movie))
	if e.Movie.FilePath != nil && *e.Movie.FilePath != "" {
		b.AddKeyValueCode("Path", *e.Movie.FilePath)
	}
	return b.Message()
}

func (t *Transformer) radarrMovieDelete(e RadarrMovieDelete) message.Data {
	var b message.Builder
	t.addHeading(&b, "Movie Deleted", movieTitle(e.Movie))
	b.AddKeyValue("Files Deleted", yesNo(e.DeletedFiles))
	return b.Message()
}

func (t *Transformer) radarrMovieFileDelete(e RadarrMovieFileDelete) message.Data {
	var b message.Builder
	t.addHeading(&b, "Movie File Deleted", movieTitle(e.Movie))
	b.AddKeyValue("Reason", orFallback(e.DeleteReason, fallbackReason))
	addQuality(&b, e.MovieFile.Quality)
	return b.Message()
}
