// Copyright 2024-2026 Aiku AI

package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/aiku/yarrbot/pkg/errs"
)

// Payload shapes pushed by Radarr's webhook notifications.

// RadarrMovie identifies the library entry an event concerns.
// ReleaseDate arrives as a bare "2006-01-02" date.
type RadarrMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate *string `json:"releaseDate"`
	FilePath    *string `json:"filePath"`
	FolderPath  *string `json:"folderPath"`
	TmdbID      *int64  `json:"tmdbId"`
	ImdbID      *string `json:"imdbId"`
}

// RadarrRemoteMovie is the upstream metadata for the movie.
type RadarrRemoteMovie struct {
	Title  string  `json:"title"`
	Year   *int    `json:"year"`
	TmdbID *int64  `json:"tmdbId"`
	ImdbID *string `json:"imdbId"`
}

// RadarrRelease describes the release a grab event found.
type RadarrRelease struct {
	Quality        *string `json:"quality"`
	QualityVersion *int    `json:"qualityVersion"`
	ReleaseGroup   *string `json:"releaseGroup"`
	ReleaseTitle   *string `json:"releaseTitle"`
	Indexer        *string `json:"indexer"`
	Size           *int64  `json:"size"`
}

// RadarrMovieFile is the imported or deleted movie file.
type RadarrMovieFile struct {
	ID             int64   `json:"id"`
	RelativePath   string  `json:"relativePath"`
	Path           string  `json:"path"`
	Quality        *string `json:"quality"`
	QualityVersion *int    `json:"qualityVersion"`
	ReleaseGroup   *string `json:"releaseGroup"`
	SceneName      *string `json:"sceneName"`
	Size           *int64  `json:"size"`
}

// RadarrEvent is one decoded Radarr webhook payload variant.
type RadarrEvent interface{ radarrEvent() }

type RadarrTest struct {
	Movie       RadarrMovie       `json:"movie"`
	RemoteMovie RadarrRemoteMovie `json:"remoteMovie"`
	Release     RadarrRelease     `json:"release"`
}

type RadarrGrab struct {
	Movie          RadarrMovie       `json:"movie"`
	RemoteMovie    RadarrRemoteMovie `json:"remoteMovie"`
	Release        RadarrRelease     `json:"release"`
	DownloadClient *string           `json:"downloadClient"`
	DownloadID     *string           `json:"downloadId"`
}

type RadarrDownload struct {
	Movie          RadarrMovie       `json:"movie"`
	RemoteMovie    RadarrRemoteMovie `json:"remoteMovie"`
	MovieFile      RadarrMovieFile   `json:"movieFile"`
	IsUpgrade      bool              `json:"isUpgrade"`
	DownloadClient *string           `json:"downloadClient"`
	DownloadID     *string           `json:"downloadId"`
}

type RadarrRename struct {
	Movie RadarrMovie `json:"movie"`
}

type RadarrMovieDelete struct {
	Movie        RadarrMovie `json:"movie"`
	DeletedFiles bool        `json:"deletedFiles"`
}

type RadarrMovieFileDelete struct {
	Movie        RadarrMovie     `json:"movie"`
	MovieFile    RadarrMovieFile `json:"movieFile"`
	DeleteReason *string         `json:"deleteReason"`
}

type RadarrHealth struct {
	Level   *string `json:"level"`
	Message *string `json:"message"`
	Type    *string `json:"type"`
	WikiURL *string `json:"wikiUrl"`
}

func (RadarrTest) radarrEvent()            {}
func (RadarrGrab) radarrEvent()            {}
func (RadarrDownload) radarrEvent()        {}
func (RadarrRename) radarrEvent()          {}
func (RadarrMovieDelete) radarrEvent()     {}
func (RadarrMovieFileDelete) radarrEvent() {}
func (RadarrHealth) radarrEvent()          {}

// DecodeRadarr parses a raw Radarr webhook body, failing closed on
// unknown event types.
func DecodeRadarr(body []byte) (RadarrEvent, error) {
	var envelope struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed Radarr payload: %v", errs.ErrValidation, err)
	}
	switch envelope.EventType {
	case "Test":
		return decodeRadarrVariant[RadarrTest](body, func(e RadarrTest) string { return e.RemoteMovie.Title })
	case "Grab":
		return decodeRadarrVariant[RadarrGrab](body, func(e RadarrGrab) string { return e.RemoteMovie.Title })
	case "Download":
		return decodeRadarrVariant[RadarrDownload](body, func(e RadarrDownload) string { return e.RemoteMovie.Title })
	case "Rename":
		return decodeRadarrVariant[RadarrRename](body, func(e RadarrRename) string { return e.Movie.Title })
	case "MovieDelete":
		return decodeRadarrVariant[RadarrMovieDelete](body, func(e RadarrMovieDelete) string { return e.Movie.Title })
	case "MovieFileDelete":
		return decodeRadarrVariant[RadarrMovieFileDelete](body, func(e RadarrMovieFileDelete) string { return e.Movie.Title })
	case "Health":
		var evt RadarrHealth
		if err := json.Unmarshal(body, &evt); err != nil {
			return nil, fmt.Errorf("%w: malformed Radarr Health payload: %v", errs.ErrValidation, err)
		}
		return evt, nil
	case "":
		return nil, fmt.Errorf("%w: Radarr payload is missing eventType", errs.ErrValidation)
	default:
		return nil, fmt.Errorf("%w: unknown Radarr event type %q", errs.ErrValidation, envelope.EventType)
	}
}

func decodeRadarrVariant[T RadarrEvent](body []byte, title func(T) string) (RadarrEvent, error) {
	var evt T
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("%w: malformed Radarr payload: %v", errs.ErrValidation, err)
	}
	if title(evt) == "" {
		return nil, fmt.Errorf("%w: Radarr payload is missing movie title", errs.ErrValidation)
	}
	return evt, nil
}
