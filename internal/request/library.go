package request

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/clipmash/internal/types"
)

// LibraryDocument seeds the library database with videos, markers and
// songs.
type LibraryDocument struct {
	Videos  []VideoDoc  `yaml:"videos"`
	Markers []MarkerDoc `yaml:"markers"`
	Songs   []SongDoc   `yaml:"songs"`
}

type VideoDoc struct {
	ID    string `yaml:"id"`
	Path  string `yaml:"path"`
	Title string `yaml:"title"`
}

type SongDoc struct {
	ID    int64        `yaml:"id"`
	Title string       `yaml:"title"`
	Path  string       `yaml:"path"`
	Beats *types.Beats `yaml:"beats"`
}

type LibraryVideo struct {
	ID    types.VideoID
	Path  string
	Title string
}

// Library is a converted LibraryDocument.
type Library struct {
	Videos  []LibraryVideo
	Markers []types.Marker
	Songs   []SongDoc
}

func LoadLibraryFile(path string) (LibraryDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return LibraryDocument{}, fmt.Errorf("open library: %w", err)
	}
	defer f.Close()
	return DecodeLibrary(f)
}

func DecodeLibrary(r io.Reader) (LibraryDocument, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc LibraryDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return LibraryDocument{}, errors.New("parse library: empty document")
		}
		return LibraryDocument{}, fmt.Errorf("parse library: %w", err)
	}
	return doc, nil
}

func (d LibraryDocument) Convert() (Library, error) {
	var out Library
	for i, v := range d.Videos {
		id, err := ParseVideoID(v.ID)
		if err != nil {
			return Library{}, fmt.Errorf("videos[%d].id: %w", i, err)
		}
		out.Videos = append(out.Videos, LibraryVideo{ID: id, Path: v.Path, Title: v.Title})
	}
	markers, err := convertMarkers(d.Markers)
	if err != nil {
		return Library{}, err
	}
	out.Markers = markers
	for i, s := range d.Songs {
		if s.ID < 0 {
			return Library{}, fmt.Errorf("songs[%d].id: must be >= 0", i)
		}
		if s.Beats != nil {
			for j := 1; j < len(s.Beats.Offsets); j++ {
				if s.Beats.Offsets[j] < s.Beats.Offsets[j-1] {
					return Library{}, fmt.Errorf("songs[%d].beats: offsets must be ascending", i)
				}
			}
		}
		out.Songs = append(out.Songs, s)
	}
	return out, nil
}
