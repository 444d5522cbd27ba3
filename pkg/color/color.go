// Package color finds color literals in USS text and renders alternative
// spellings for a picked color.
package color

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/buffer"
	"github.com/walteh/ussls/pkg/position"
)

// RGBA components are in [0, 1].
type RGBA struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
	Alpha float64 `json:"alpha"`
}

type Information struct {
	Range position.Range `json:"range"`
	Color RGBA           `json:"color"`
}

type Presentation struct {
	Label string `json:"label"`
}

var (
	hexPattern  = regexp.MustCompile(`#([0-9A-Fa-f]{3,8})`)
	rgbaPattern = regexp.MustCompile(`rgba?\s*\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*([\d.]+)\s*)?\)`)
)

// ParseHex reads #rgb, #rgba, #rrggbb and #rrggbbaa. The leading '#' is
// optional.
func ParseHex(s string) (RGBA, bool) {
	s = strings.TrimPrefix(s, "#")
	var rgb, alpha string
	switch len(s) {
	case 3, 6:
		rgb = s
	case 4:
		rgb, alpha = s[:3], strings.Repeat(s[3:], 2)
	case 8:
		rgb, alpha = s[:6], s[6:]
	default:
		return RGBA{}, false
	}

	c, err := colorful.Hex("#" + rgb)
	if err != nil {
		return RGBA{}, false
	}
	out := RGBA{Red: c.R, Green: c.G, Blue: c.B, Alpha: 1}
	if alpha != "" {
		a, err := strconv.ParseUint(alpha, 16, 8)
		if err != nil {
			return RGBA{}, false
		}
		out.Alpha = float64(a) / 255
	}
	return out, true
}

// Find lists the hex and rgb()/rgba() literals inside declaration blocks, in
// document order. Hex runs that continue into a longer token such as
// "#fade-in" are not colors.
func Find(ctx context.Context, buf *buffer.Buffer) []Information {
	text := buf.Text()
	var out []Information

	for _, m := range hexPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[1] < len(text) && isNameByte(text[m[1]]) {
			continue
		}
		if buf.BraceBalance(buf.ByteOffsetToOffset(m[0])) <= 0 {
			continue
		}
		c, ok := ParseHex(text[m[2]:m[3]])
		if !ok {
			continue
		}
		out = append(out, Information{Range: byteRange(buf, m[0], m[1]), Color: c})
	}

	for _, m := range rgbaPattern.FindAllStringSubmatchIndex(text, -1) {
		c := RGBA{
			Red:   channel(text[m[2]:m[3]]),
			Green: channel(text[m[4]:m[5]]),
			Blue:  channel(text[m[6]:m[7]]),
			Alpha: 1,
		}
		if m[8] >= 0 {
			if a, err := strconv.ParseFloat(text[m[8]:m[9]], 64); err == nil {
				c.Alpha = min(max(a, 0), 1)
			}
		}
		out = append(out, Information{Range: byteRange(buf, m[0], m[1]), Color: c})
	}

	slices.SortFunc(out, func(a, b Information) int {
		return a.Range.Start.Compare(b.Range.Start)
	})

	zerolog.Ctx(ctx).Debug().Int("colors", len(out)).Msg("found colors")
	return out
}

// Presentations offers #RRGGBB and rgb() for opaque colors, #RRGGBBAA and
// rgba() otherwise.
func Presentations(c RGBA) []Presentation {
	cc := colorful.Color{R: c.Red, G: c.Green, B: c.Blue}.Clamped()
	r, g, b := cc.RGB255()
	hex := strings.ToUpper(cc.Hex())

	if c.Alpha >= 1 {
		return []Presentation{
			{Label: hex},
			{Label: fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)},
		}
	}
	a := min(max(c.Alpha, 0), 1)
	return []Presentation{
		{Label: fmt.Sprintf("%s%02X", hex, uint8(math.Round(a*255)))},
		{Label: fmt.Sprintf("rgba(%d, %d, %d, %.2f)", r, g, b, a)},
	}
}

func channel(s string) float64 {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return float64(min(max(v, 0), 255)) / 255
}

func byteRange(buf *buffer.Buffer, start, end int) position.Range {
	return position.Range{Start: buf.ByteOffsetToPosition(start), End: buf.ByteOffsetToPosition(end)}
}

func isNameByte(b byte) bool {
	return b == '-' || b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
