package tagging

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	flac "github.com/go-flac/go-flac"
)

// ErrNoArt is returned when a file carries no embedded cover art.
var ErrNoArt = errors.New("no embedded art")

// EmbeddedArt extracts the first embedded cover image from an audio file,
// returning the raw image bytes and their MIME type.
func EmbeddedArt(path string) ([]byte, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3Art(path)
	case ".flac":
		return flacArt(path)
	default:
		return nil, "", ErrNoArt
	}
}

func mp3Art(path string) ([]byte, string, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoArt, err)
	}
	defer tag.Close()

	frames := tag.GetFrames(tag.CommonID("Attached picture"))
	for _, f := range frames {
		pic, ok := f.(id3v2.PictureFrame)
		if !ok {
			continue
		}
		if len(pic.Picture) > 0 {
			return pic.Picture, pic.MimeType, nil
		}
	}
	return nil, "", ErrNoArt
}

func flacArt(path string) ([]byte, string, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoArt, err)
	}

	for _, block := range f.Meta {
		if block.Type != flac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}
		if len(pic.ImageData) > 0 {
			return pic.ImageData, pic.MIME, nil
		}
	}
	return nil, "", ErrNoArt
}
