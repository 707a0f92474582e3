package tagging

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1991-09-24", 1991},
		{"3/12", 3},
		{"  7 ", 7},
		{"abc", 0},
		{"", 0},
		{"2023", 2023},
	}
	for _, tt := range tests {
		if got := leadingInt(tt.input); got != tt.want {
			t.Errorf("leadingInt(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestRead_UnsupportedFormat(t *testing.T) {
	r := NewFileReader()
	if _, err := r.Read("/tmp/file.ogg"); err == nil {
		t.Error("Expected error for unsupported extension, got nil")
	}
}

func TestReadMP3_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("id3v2.Open failed: %v", err)
	}
	tag.SetTitle("So What")
	tag.SetArtist("Miles Davis")
	tag.SetAlbum("Kind of Blue")
	tag.SetGenre("Jazz")
	tag.SetYear("1959")
	tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), "1/5")
	if err := tag.Save(); err != nil {
		t.Fatalf("tag.Save failed: %v", err)
	}
	tag.Close()

	got, err := NewFileReader().Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := Tags{Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue", Genre: "Jazz", Year: 1959, Track: 1}
	if *got != want {
		t.Errorf("Read() = %+v, want %+v", *got, want)
	}
}

func TestReadMP3_NoFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.mp3")
	if err := os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x00}, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := NewFileReader().Read(path); !errors.Is(err, ErrNoTags) {
		t.Errorf("Expected ErrNoTags, got %v", err)
	}
}

// buildWAV assembles a minimal RIFF file with the given chunks.
func buildWAV(chunks ...[]byte) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(4+len(body)))
	out = append(out, []byte("WAVE")...)
	return append(out, body...)
}

func chunk(id string, data []byte) []byte {
	out := []byte(id)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)
	if len(data)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func infoEntry(id, value string) []byte {
	data := append([]byte(value), 0)
	out := []byte(id)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)
	if len(data)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func TestReadWAV(t *testing.T) {
	var info []byte
	info = append(info, []byte("INFO")...)
	info = append(info, infoEntry("INAM", "Take Five")...)
	info = append(info, infoEntry("IART", "Dave Brubeck")...)
	info = append(info, infoEntry("IPRD", "Time Out")...)
	info = append(info, infoEntry("IGNR", "Jazz")...)
	info = append(info, infoEntry("ICRD", "1959-12-14")...)
	info = append(info, infoEntry("ITRK", "3")...)

	// A fmt chunk before the LIST proves unrelated chunks are skipped.
	fmtChunk := chunk("fmt ", make([]byte, 16))
	data := buildWAV(fmtChunk, chunk("LIST", info))

	path := filepath.Join(t.TempDir(), "take_five.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := NewFileReader().Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := Tags{Title: "Take Five", Artist: "Dave Brubeck", Album: "Time Out", Genre: "Jazz", Year: 1959, Track: 3}
	if *got != want {
		t.Errorf("Read() = %+v, want %+v", *got, want)
	}
}

func TestReadWAV_NoTags(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not riff", []byte("JUNKJUNKJUNKJUNK")},
		{"no list chunk", buildWAV(chunk("fmt ", make([]byte, 16)))},
		{"empty info", buildWAV(chunk("LIST", []byte("INFO")))},
		{"truncated", []byte("RIFF")},
		{
			// A LIST header claiming 4GiB with no data behind it must be
			// rejected without attempting the allocation.
			"oversized list chunk",
			buildWAV(binary.LittleEndian.AppendUint32([]byte("LIST"), 0xFFFFFFFF)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.wav")
			if err := os.WriteFile(path, tt.data, 0o644); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			if _, err := NewFileReader().Read(path); !errors.Is(err, ErrNoTags) {
				t.Errorf("Expected ErrNoTags, got %v", err)
			}
		})
	}
}

func TestEmbeddedArt_MP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "art.mp3")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	image := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("id3v2.Open failed: %v", err)
	}
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Picture:     image,
	})
	if err := tag.Save(); err != nil {
		t.Fatalf("tag.Save failed: %v", err)
	}
	tag.Close()

	art, mime, err := EmbeddedArt(path)
	if err != nil {
		t.Fatalf("EmbeddedArt failed: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("Expected mime image/jpeg, got %q", mime)
	}
	if len(art) != len(image) {
		t.Errorf("Expected %d art bytes, got %d", len(image), len(art))
	}
}

func TestEmbeddedArt_None(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.wav")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, _, err := EmbeddedArt(path); !errors.Is(err, ErrNoArt) {
		t.Errorf("Expected ErrNoArt, got %v", err)
	}
}
