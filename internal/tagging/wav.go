package tagging

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxListChunkSize bounds how much of a LIST chunk is read into memory.
// Real INFO blocks are a few hundred bytes.
const maxListChunkSize = 1 << 20

// readWAV pulls tags out of a RIFF LIST/INFO chunk. None of the tag libraries
// in use cover WAV metadata, so the chunk walk is done by hand; the INFO keys
// map onto the same fields the other formats provide.
//
// RIFF layout: "RIFF" [4-byte size] "WAVE" then chunks of
// [4-byte id][4-byte little-endian size][data, padded to even length].
func readWAV(path string) (*Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTags, err)
	}
	defer f.Close()

	var header [12]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return nil, ErrNoTags
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, ErrNoTags
	}

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(f, chunk[:]); err != nil {
			return nil, ErrNoTags
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		// Chunk sizes come from the file and cannot be trusted; a LIST
		// claiming more than any plausible metadata block is skipped
		// instead of allocated.
		if id == "LIST" && size <= maxListChunkSize {
			data := make([]byte, size)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, ErrNoTags
			}
			if len(data) >= 4 && string(data[0:4]) == "INFO" {
				return parseInfoChunk(data[4:])
			}
			if size%2 == 1 {
				if _, err := f.Seek(1, io.SeekCurrent); err != nil {
					return nil, ErrNoTags
				}
			}
			continue
		}

		skip := int64(size)
		if size%2 == 1 {
			skip++
		}
		if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
			return nil, ErrNoTags
		}
	}
}

func parseInfoChunk(data []byte) (*Tags, error) {
	t := &Tags{}
	found := false

	for len(data) >= 8 {
		id := string(data[0:4])
		size := int(binary.LittleEndian.Uint32(data[4:8]))
		data = data[8:]
		if size > len(data) {
			break
		}
		value := strings.TrimRight(string(data[:size]), "\x00")
		advance := size
		if size%2 == 1 && advance < len(data) {
			advance++
		}
		data = data[advance:]

		switch id {
		case "INAM":
			t.Title = value
			found = true
		case "IART":
			t.Artist = value
			found = true
		case "IPRD", "IALB":
			t.Album = value
			found = true
		case "IGNR":
			t.Genre = value
			found = true
		case "ICRD":
			t.Year = leadingInt(value)
			found = true
		case "ITRK", "IPRT":
			t.Track = leadingInt(value)
			found = true
		}
	}

	if !found {
		return nil, ErrNoTags
	}
	return t, nil
}
