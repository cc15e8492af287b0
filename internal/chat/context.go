package chat

import (
	"strings"

	"github.com/mohammad-safakhou/wayfarer/internal/catalog"
)

// BuildPlaceContext normalizes raw catalog records into the uniform shape the
// prompt compiler embeds. Records may carry any subset of key/name/title;
// whichever is present is mirrored so both the display key and the name end
// up populated. Records with none of the three are dropped, never emitted
// with an empty key.
func BuildPlaceContext(raws []catalog.RawPlace) []PlaceContext {
	out := make([]PlaceContext, 0, len(raws))
	for _, r := range raws {
		key := strings.TrimSpace(r.Key)
		name := strings.TrimSpace(r.Name)
		title := strings.TrimSpace(r.Title)

		switch {
		case key == "" && name == "" && title == "":
			continue
		case key == "" && name == "":
			key, name = title, title
		case key == "":
			key = name
		case name == "":
			name = key
		}

		entry := PlaceContext{
			Key:         key,
			Name:        name,
			Type:        strings.TrimSpace(r.Type),
			Description: strings.TrimSpace(r.Description),
			Address:     strings.TrimSpace(r.Address),
		}
		if r.Lat != 0 || r.Lng != 0 {
			entry.Coordinates = &Coordinates{Lat: r.Lat, Lng: r.Lng}
		}
		out = append(out, entry)
	}
	return out
}
