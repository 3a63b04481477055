// Copyright 2024-2026 Aiku AI

package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aiku/yarrbot/pkg/errs"
)

// Payload shapes pushed by Sonarr's webhook notifications. Field names
// follow Sonarr's camelCase JSON; optional fields are pointers so missing
// values can render their fallback text.

// SonarrSeries identifies the series an event concerns.
type SonarrSeries struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Path   string `json:"path"`
	TvdbID *int64 `json:"tvdbId"`
	Type   string `json:"type"`
}

// SonarrEpisode is one episode referenced by a grab/download/delete event.
type SonarrEpisode struct {
	ID            int64      `json:"id"`
	EpisodeNumber int        `json:"episodeNumber"`
	SeasonNumber  int        `json:"seasonNumber"`
	Title         string     `json:"title"`
	AirDate       *string    `json:"airDate"`
	AirDateUTC    *time.Time `json:"airDateUtc"`
}

// SonarrRelease describes the release a grab event found.
type SonarrRelease struct {
	Quality        *string `json:"quality"`
	QualityVersion *int    `json:"qualityVersion"`
	ReleaseGroup   *string `json:"releaseGroup"`
	ReleaseTitle   *string `json:"releaseTitle"`
	Indexer        *string `json:"indexer"`
	Size           *int64  `json:"size"`
}

// SonarrEpisodeFile is the imported file of a download event.
type SonarrEpisodeFile struct {
	ID             int64   `json:"id"`
	RelativePath   string  `json:"relativePath"`
	Path           string  `json:"path"`
	Quality        *string `json:"quality"`
	QualityVersion *int    `json:"qualityVersion"`
	ReleaseGroup   *string `json:"releaseGroup"`
	SceneName      *string `json:"sceneName"`
	Size           *int64  `json:"size"`
}

// SonarrQuality is the nested quality descriptor used by deletion events.
type SonarrQuality struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SonarrQualityModel wraps SonarrQuality the way Sonarr nests it.
type SonarrQualityModel struct {
	Quality SonarrQuality `json:"quality"`
}

// SonarrDeletedEpisodeFile is the file removed by an episode file delete.
type SonarrDeletedEpisodeFile struct {
	ID           int64               `json:"id"`
	RelativePath string              `json:"relativePath"`
	Path         string              `json:"path"`
	Quality      *SonarrQualityModel `json:"quality"`
	Size         *int64              `json:"size"`
}

// SonarrRenamedEpisodeFile records one rename performed by Sonarr.
type SonarrRenamedEpisodeFile struct {
	PreviousRelativePath *string `json:"previousRelativePath"`
	PreviousPath         *string `json:"previousPath"`
	RelativePath         *string `json:"relativePath"`
	Path                 *string `json:"path"`
}

// SonarrEvent is one decoded Sonarr webhook payload variant.
type SonarrEvent interface{ sonarrEvent() }

type SonarrTest struct {
	Series   SonarrSeries    `json:"series"`
	Episodes []SonarrEpisode `json:"episodes"`
}

type SonarrGrab struct {
	Series         SonarrSeries    `json:"series"`
	Episodes       []SonarrEpisode `json:"episodes"`
	Release        SonarrRelease   `json:"release"`
	DownloadClient *string         `json:"downloadClient"`
	DownloadID     *string         `json:"downloadId"`
}

type SonarrDownload struct {
	Series         SonarrSeries      `json:"series"`
	Episodes       []SonarrEpisode   `json:"episodes"`
	EpisodeFile    SonarrEpisodeFile `json:"episodeFile"`
	IsUpgrade      bool              `json:"isUpgrade"`
	DownloadClient *string           `json:"downloadClient"`
	DownloadID     *string           `json:"downloadId"`
}

type SonarrRename struct {
	Series              SonarrSeries               `json:"series"`
	RenamedEpisodeFiles []SonarrRenamedEpisodeFile `json:"renamedEpisodeFiles"`
}

type SonarrSeriesDelete struct {
	Series       SonarrSeries `json:"series"`
	DeletedFiles bool         `json:"deletedFiles"`
}

type SonarrEpisodeFileDelete struct {
	Series       SonarrSeries             `json:"series"`
	Episodes     []SonarrEpisode          `json:"episodes"`
	EpisodeFile  SonarrDeletedEpisodeFile `json:"episodeFile"`
	DeleteReason *string                  `json:"deleteReason"`
}

type SonarrHealth struct {
	Level   *string `json:"level"`
	Message *string `json:"message"`
	Type    *string `json:"type"`
	WikiURL *string `json:"wikiUrl"`
}

func (SonarrTest) sonarrEvent()              {}
func (SonarrGrab) sonarrEvent()              {}
func (SonarrDownload) sonarrEvent()          {}
func (SonarrRename) sonarrEvent()            {}
func (SonarrSeriesDelete) sonarrEvent()      {}
func (SonarrEpisodeFileDelete) sonarrEvent() {}
func (SonarrHealth) sonarrEvent()            {}

// DecodeSonarr parses a raw Sonarr webhook body. Unknown event types fail
// closed with errs.ErrValidation; they are never mapped to a generic
// variant.
func DecodeSonarr(body []byte) (SonarrEvent, error) {
	var envelope struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed Sonarr payload: %v", errs.ErrValidation, err)
	}
	switch envelope.EventType {
	case "Test":
		return decodeSonarrVariant[SonarrTest](body, func(e SonarrTest) string { return e.Series.Title })
	case "Grab":
		return decodeSonarrVariant[SonarrGrab](body, func(e SonarrGrab) string { return e.Series.Title })
	case "Download":
		return decodeSonarrVariant[SonarrDownload](body, func(e SonarrDownload) string { return e.Series.Title })
	case "Rename":
		return decodeSonarrVariant[SonarrRename](body, func(e SonarrRename) string { return e.Series.Title })
	case "SeriesDelete":
		return decodeSonarrVariant[SonarrSeriesDelete](body, func(e SonarrSeriesDelete) string { return e.Series.Title })
	case "EpisodeFileDelete":
		return decodeSonarrVariant[SonarrEpisodeFileDelete](body, func(e SonarrEpisodeFileDelete) string { return e.Series.Title })
	case "Health":
		var evt SonarrHealth
		if err := json.Unmarshal(body, &evt); err != nil {
			return nil, fmt.Errorf("%w: malformed Sonarr Health payload: %v", errs.ErrValidation, err)
		}
		return evt, nil
	case "":
		return nil, fmt.Errorf("%w: Sonarr payload is missing eventType", errs.ErrValidation)
	default:
		return nil, fmt.Errorf("%w: unknown Sonarr event type %q", errs.ErrValidation, envelope.EventType)
	}
}

// decodeSonarrVariant unmarshals one variant and enforces that the series
// is actually present; encoding/json leaves missing objects zeroed, which
// would otherwise render an empty heading.
func decodeSonarrVariant[T SonarrEvent](body []byte, title func(T) string) (SonarrEvent, error) {
	var evt T
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("%w: malformed Sonarr payload: %v", errs.ErrValidation, err)
	}
	if title(evt) == "" {
		return nil, fmt.Errorf("%w: Sonarr payload is missing series title", errs.ErrValidation)
	}
	return evt, nil
}
