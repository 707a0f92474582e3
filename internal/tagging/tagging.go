// Package tagging reads metadata tags from audio files on disk. It is the
// indexer's only window into file contents; unreadable tags surface as
// ErrNoTags and the caller decides what that means.
package tagging

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
)

// ErrNoTags is returned when a file carries no readable tag data.
var ErrNoTags = errors.New("no readable tags")

// Tags is the metadata extracted from one audio file.
type Tags struct {
	Title  string
	Artist string
	Album  string
	Genre  string
	Year   int
	Track  int
}

// Reader extracts tags from an audio file path.
type Reader interface {
	Read(path string) (*Tags, error)
}

// FileReader reads tags straight from files, dispatching on extension.
type FileReader struct{}

func NewFileReader() *FileReader {
	return &FileReader{}
}

func (r *FileReader) Read(path string) (*Tags, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return readMP3(path)
	case ".flac":
		return readFLAC(path)
	case ".wav":
		return readWAV(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
}

func readMP3(path string) (*Tags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTags, err)
	}
	defer tag.Close()

	if !tag.HasFrames() {
		return nil, ErrNoTags
	}

	t := &Tags{
		Title:  tag.Title(),
		Artist: tag.Artist(),
		Album:  tag.Album(),
		Genre:  tag.Genre(),
		Year:   leadingInt(tag.Year()),
		Track:  leadingInt(tag.GetTextFrame(tag.CommonID("Track number/Position in set")).Text),
	}
	return t, nil
}

func readFLAC(path string) (*Tags, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTags, err)
	}

	var cmt *flacvorbis.MetaDataBlockVorbisComment
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			cmt, err = flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNoTags, err)
			}
			break
		}
	}
	if cmt == nil {
		return nil, ErrNoTags
	}

	t := &Tags{
		Title:  firstComment(cmt, flacvorbis.FIELD_TITLE),
		Artist: firstComment(cmt, flacvorbis.FIELD_ARTIST),
		Album:  firstComment(cmt, flacvorbis.FIELD_ALBUM),
		Genre:  firstComment(cmt, flacvorbis.FIELD_GENRE),
		Year:   leadingInt(firstComment(cmt, flacvorbis.FIELD_DATE)),
		Track:  leadingInt(firstComment(cmt, flacvorbis.FIELD_TRACKNUMBER)),
	}
	return t, nil
}

func firstComment(cmt *flacvorbis.MetaDataBlockVorbisComment, field string) string {
	vals, err := cmt.Get(field)
	if err != nil || len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// leadingInt parses the leading digits of s ("1991-09-24" -> 1991, "3/12" -> 3).
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
