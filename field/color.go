package field

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is an opaque 8-bit RGB color.
type Color struct {
	R, G, B uint8
}

// Neutral is used for null values and unassigned categories.
var Neutral = Color{R: 200, G: 200, B: 200}

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses "#rgb" or "#rrggbb" (leading '#' optional).
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func lerpColor(a, b Color, t float64) Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}

// categoricalPalette is the default category cycle.
var categoricalPalette = []Color{
	{31, 119, 180}, {255, 127, 14}, {44, 160, 44}, {214, 39, 40},
	{148, 103, 189}, {140, 86, 75}, {227, 119, 194}, {127, 127, 127},
	{188, 189, 34}, {23, 190, 207}, {174, 199, 232}, {255, 187, 120},
	{152, 223, 138}, {255, 152, 150}, {197, 176, 213}, {196, 156, 148},
	{247, 182, 210}, {199, 199, 199}, {219, 219, 141}, {158, 218, 229},
}

// PaletteColor returns the default color for category index i.
func PaletteColor(i int) Color {
	if i < 0 {
		return Neutral
	}
	return categoricalPalette[i%len(categoricalPalette)]
}

// Colormap maps t in [0,1] to a color by linear interpolation between anchors.
type Colormap struct {
	Name    string
	anchors []Color
}

// DefaultColormap is used when a field names none or an unknown one.
const DefaultColormap = "viridis"

var colormaps = map[string][]Color{
	"viridis":  {{68, 1, 84}, {59, 82, 139}, {33, 145, 140}, {94, 201, 98}, {253, 231, 37}},
	"magma":    {{0, 0, 4}, {81, 18, 124}, {183, 55, 121}, {252, 137, 97}, {252, 253, 191}},
	"plasma":   {{13, 8, 135}, {126, 3, 168}, {204, 71, 120}, {248, 149, 64}, {240, 249, 33}},
	"greys":    {{255, 255, 255}, {0, 0, 0}},
	"coolwarm": {{59, 76, 192}, {221, 221, 221}, {180, 4, 38}},
}

// LookupColormap returns the named colormap, falling back to DefaultColormap.
func LookupColormap(name string) Colormap {
	if a, ok := colormaps[name]; ok {
		return Colormap{Name: name, anchors: a}
	}
	return Colormap{Name: DefaultColormap, anchors: colormaps[DefaultColormap]}
}

// ColormapNames lists the built-in colormaps.
func ColormapNames() []string {
	return []string{"coolwarm", "greys", "magma", "plasma", "viridis"}
}

// At evaluates the colormap. t is clamped to [0,1]; NaN yields Neutral.
func (m Colormap) At(t float64) Color {
	if math.IsNaN(t) {
		return Neutral
	}
	if t <= 0 {
		return m.anchors[0]
	}
	if t >= 1 {
		return m.anchors[len(m.anchors)-1]
	}
	pos := t * float64(len(m.anchors)-1)
	i := int(pos)
	return lerpColor(m.anchors[i], m.anchors[i+1], pos-float64(i))
}
