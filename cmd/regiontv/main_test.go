package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/voyagen/regiontv/internal/models"
	"github.com/voyagen/regiontv/internal/service"
)

func TestPrintView(t *testing.T) {
	is := is.New(t)
	news, weather := "News", "Weather"
	channels := []models.Channel{
		{Name: "Seven", URL: "http://x/7.m3u8", Group: "Commercial", NowPlaying: new(string)},
		{Name: "ABC TV", URL: "http://x/abc.m3u8", Group: "ABC", NowPlaying: &news, UpNext: &weather},
	}

	var buf bytes.Buffer
	printView(&buf, models.Sydney, models.SourceJSON, service.BuildView(channels, ""))
	out := buf.String()

	is.True(strings.HasPrefix(out, "Sydney: 2 channels (json)\n"))
	is.True(strings.Index(out, "ABC (1)") < strings.Index(out, "Commercial (1)"))
	is.True(strings.Contains(out, "  ABC TV  | News  > Weather\n"))
	is.True(strings.Contains(out, "  Seven  | Live Program\n")) // untitled program labelled
}
