// Package trackinfo implements C9: a best-effort read of the currently
// looping source file's tags, surfaced through the admin status endpoint.
// Uses dhowden/tag, a pure-Go ID3/Vorbis-comment/MP4-atom reader, and shells
// out to ffmpeg only for containers dhowden/tag cannot parse.
package trackinfo

import (
	"context"
	"os"
	"time"

	"github.com/dhowden/tag"

	"github.com/arung-agamani/zelfm/internal/ffmpeg"
)

// Meta is the descriptive subset of a source file's tags exposed through
// status; zero value when tags are absent or the source is a live device.
type Meta struct {
	Title  string
	Artist string
	Album  string
}

// Read opens path and reads its tags, returning a zero Meta (not an error)
// if the file has no readable tags — this is advisory metadata, never worth
// failing a status request over. Falls back to ffmpeg.ReadTags for
// containers dhowden/tag doesn't recognize.
func Read(path string) Meta {
	if path == "" {
		return Meta{}
	}
	if m, ok := readWithDhowden(path); ok {
		return m
	}
	return readWithFfmpeg(path)
}

func readWithDhowden(path string) (Meta, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Meta{}, false
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Meta{}, false
	}
	return Meta{Title: m.Title(), Artist: m.Artist(), Album: m.Album()}, true
}

func readWithFfmpeg(path string) Meta {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tags, err := ffmpeg.ReadTags(ctx, path)
	if err != nil {
		return Meta{}
	}
	return Meta{Title: tagAny(tags, "title"), Artist: tagAny(tags, "artist"), Album: tagAny(tags, "album")}
}

func tagAny(tags map[string]string, key string) string {
	return tags[key]
}
