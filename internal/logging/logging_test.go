package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	is := is.New(t)
	is.Equal(ParseLevel("debug"), zerolog.DebugLevel)
	is.Equal(ParseLevel(" WARN "), zerolog.WarnLevel)
	is.Equal(ParseLevel(""), zerolog.InfoLevel)
	is.Equal(ParseLevel("loud"), zerolog.InfoLevel)
}

func TestComponentLoggerWritesJSON(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	log := Component(NewWithWriter("info", FormatJSON, &buf), "loader")
	log.Debug().Msg("hidden")
	log.Info().Str("region", "Perth").Msg("loaded")

	var line map[string]any
	is.NoErr(json.Unmarshal(buf.Bytes(), &line)) // exactly one JSON line; debug filtered
	is.Equal(line["component"], "loader")
	is.Equal(line["region"], "Perth")
	is.Equal(line["message"], "loaded")
}
