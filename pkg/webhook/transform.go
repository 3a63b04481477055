// Copyright 2024-2026 Aiku AI

package webhook

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aiku/yarrbot/pkg/database"
	"github.com/aiku/yarrbot/pkg/errs"
	"github.com/aiku/yarrbot/pkg/message"
)

// Fallback text rendered when optional payload fields are absent. The
// message always carries the line; only the value degrades.
const (
	fallbackQuality = "Not Specified"
	fallbackReason  = "No Reason Given"
	fallbackMessage = "No Message Given"
	unknownLevel    = "Unknown"
)

// Transformer renders decoded webhook events into dual-encoding chat
// messages. An optional server name prefixes every heading so one bot can
// relay for multiple media servers.
type Transformer struct {
	serverName string
	log        zerolog.Logger
}

// NewTransformer creates a Transformer. serverName may be empty.
func NewTransformer(serverName string, log zerolog.Logger) *Transformer {
	return &Transformer{
		serverName: serverName,
		log:        log.With().Str("component", "transformer").Logger(),
	}
}

// Transform decodes a raw webhook body for the endpoint's declared source
// and renders the matching message template. It never emits a partial
// message: decode failures return before any rendering starts.
func (t *Transformer) Transform(arrType database.ArrType, body []byte) (message.Data, error) {
	switch arrType {
	case database.ArrSonarr:
		evt, err := DecodeSonarr(body)
		if err != nil {
			return message.Data{}, err
		}
		return t.renderSonarr(evt), nil
	case database.ArrRadarr:
		evt, err := DecodeRadarr(body)
		if err != nil {
			return message.Data{}, err
		}
		return t.renderRadarr(evt), nil
	default:
		return message.Data{}, fmt.Errorf("%w: unknown source type %q", errs.ErrValidation, arrType)
	}
}

// addHeading starts the message with "kind: subject", prefixed with the
// configured server name when one is set.
func (t *Transformer) addHeading(b *message.Builder, kind, subject string) {
	if t.serverName != "" {
		b.AddHeading(fmt.Sprintf("%s - %s", t.serverName, kind), subject)
		return
	}
	b.AddHeading(kind, subject)
}

func addQuality(b *message.Builder, quality *string) {
	value := fallbackQuality
	if quality != nil && *quality != "" {
		value = *quality
	}
	b.AddKeyValue("Quality", value)
}

func orFallback(value *string, fallback string) string {
	if value != nil && *value != "" {
		return *value
	}
	return fallback
}

// renderHealth is shared between the two sources; only the heading
// differs.
func (t *Transformer) renderHealth(source string, level, msg, healthType, wikiURL *string) message.Data {
	var b message.Builder
	t.addHeading(&b, source, "Health Check")

	levelText := unknownLevel
	if level != nil {
		switch *level {
		case "ok", "Ok", "OK":
			levelText = "Ok"
		case "notice", "Notice":
			levelText = "Notice"
		case "warning", "Warning":
			levelText = "Warning"
		case "error", "Error":
			levelText = "Error"
		default:
			t.log.Warn().Str("level", *level).Msg("Unrecognized health check level, reporting Unknown")
		}
	}
	b.AddKeyValue("Level", levelText)
	b.AddKeyValue("Message", orFallback(msg, fallbackMessage))
	b.AddKeyValue("Type", orFallback(healthType, fallbackMessage))
	b.AddKeyValue("Wiki URL", orFallback(wikiURL, fallbackMessage))
	return b.Message()
}
