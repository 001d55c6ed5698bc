// Package photo holds the canonical photo and collection records and the helpers that turn them
// into responsive image markup.
package photo

// RawPhoto is a photo as the backend sends it. Date parts may arrive in either wire shape.
type RawPhoto struct {
	ID             int       `json:"id"`
	Basename       string    `json:"basename"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	AvailableSizes string    `json:"availableSizes"`
	Year           DateField `json:"year"`
	Month          DateField `json:"month"`
	Day            DateField `json:"day"`
	Sequence       *int      `json:"sequence"`
	Rotation       *int      `json:"rotation"`
	Hidden         bool      `json:"hidden"`
	Description    *string   `json:"description"`
	Note           *string   `json:"note"`
}

// Photo is the canonical photo record. It does not depend on which backend shape was received.
type Photo struct {
	ID       int    `json:"id"`
	Basename string `json:"basename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`

	// AvailableSizes is the JSON-encoded size manifest, see ParseSizes.
	AvailableSizes string `json:"availableSizes"`

	Year  *int `json:"yearValue,omitempty"`
	Month *int `json:"monthValue,omitempty"`
	Day   *int `json:"dayValue,omitempty"`

	Sequence    *int   `json:"sequence,omitempty"`
	Rotation    int    `json:"rotation,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
	Description string `json:"description,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Normalize converts a wire photo into its canonical form.
func Normalize(raw RawPhoto) Photo {
	p := Photo{
		ID:             raw.ID,
		Basename:       raw.Basename,
		Width:          raw.Width,
		Height:         raw.Height,
		AvailableSizes: raw.AvailableSizes,
		Year:           raw.Year.Value(),
		Month:          raw.Month.Value(),
		Day:            raw.Day.Value(),
		Sequence:       raw.Sequence,
		Hidden:         raw.Hidden,
	}
	if raw.Rotation != nil {
		p.Rotation = *raw.Rotation
	}
	if raw.Description != nil {
		p.Description = *raw.Description
	}
	if raw.Note != nil {
		p.Note = *raw.Note
	}
	return p
}

// NormalizeAll normalizes a response, preserving order.
func NormalizeAll(raws []RawPhoto) []Photo {
	ps := make([]Photo, 0, len(raws))
	for _, r := range raws {
		ps = append(ps, Normalize(r))
	}
	return ps
}

// Sizes returns the parsed size manifest.
func (p Photo) Sizes() []string {
	return ParseSizes(p.AvailableSizes)
}

// Visible returns the photos that are not hidden, in order.
func Visible(ps []Photo) []Photo {
	out := make([]Photo, 0, len(ps))
	for _, p := range ps {
		if !p.Hidden {
			out = append(out, p)
		}
	}
	return out
}

// RotationDegrees converts a rotation code into clockwise CSS degrees.
func RotationDegrees(rotation int) int {
	switch rotation {
	case 1:
		return 90
	case 2:
		return 180
	case 3:
		return 270
	default:
		return 0
	}
}
