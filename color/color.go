package color

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

var ErrMalformedColorSpec = errors.New("malformed color spec")

type MalformedColorSpecError struct {
	Spec   string
	Token  string
	Reason string
}

func (e *MalformedColorSpecError) Error() string {
	return fmt.Sprintf("malformed color spec %q: %s (token %q)", e.Spec, e.Reason, e.Token)
}

func (e *MalformedColorSpecError) Is(target error) bool {
	return target == ErrMalformedColorSpec
}

// Normalized is a color split into a hex string and a separate opacity.
// Hex is "#RRGGBB" in uppercase for hex and functional inputs, or the
// unchanged name for named colors.
type Normalized struct {
	Hex     string
	Opacity float64
}

func (n Normalized) IsHex() bool {
	return len(n.Hex) == 7 && n.Hex[0] == '#' && isHex(n.Hex[1:])
}

// RGBA renders the color as a single rgba() string. Named colors have no
// channel values, so they are returned as is.
func (n Normalized) RGBA() string {
	if !n.IsHex() {
		return n.Hex
	}
	v, _ := strconv.ParseUint(n.Hex[1:], 16, 32)
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", v>>16&0xff, v>>8&0xff, v&0xff,
		strconv.FormatFloat(n.Opacity, 'f', -1, 64))
}

func Normalize(spec string) (Normalized, error) {
	s := strings.TrimSpace(spec)
	lower := strings.ToLower(s)

	switch {
	case strings.HasPrefix(lower, "rgba("):
		return parseFunc(spec, s[len("rgba("):], 4)
	case strings.HasPrefix(lower, "rgb("):
		return parseFunc(spec, s[len("rgb("):], 3)
	case strings.HasPrefix(s, "#"):
		if n, ok := parseHex(s[1:]); ok {
			return n, nil
		}
		return Normalized{}, &MalformedColorSpecError{Spec: spec, Token: s, Reason: "expected 6 or 8 hex digits"}
	}

	if n, ok := parseHex(s); ok {
		return n, nil
	}
	return Normalized{Hex: spec, Opacity: 1}, nil
}

// MustNormalize is Normalize for colors known at compile time.
func MustNormalize(spec string) Normalized {
	n, err := Normalize(spec)
	if err != nil {
		panic(err)
	}
	return n
}

func parseHex(digits string) (Normalized, bool) {
	if (len(digits) != 6 && len(digits) != 8) || !isHex(digits) {
		return Normalized{}, false
	}
	n := Normalized{Hex: "#" + strings.ToUpper(digits[:6]), Opacity: 1}
	if len(digits) == 8 {
		a, _ := strconv.ParseUint(digits[6:], 16, 8)
		n.Opacity = float64(a) / 255
	}
	return n, true
}

func parseFunc(spec, body string, want int) (Normalized, error) {
	body = strings.TrimSpace(body)
	if !strings.HasSuffix(body, ")") {
		return Normalized{}, &MalformedColorSpecError{Spec: spec, Token: body, Reason: "missing closing parenthesis"}
	}
	tokens := strings.Split(strings.TrimSuffix(body, ")"), ",")
	if len(tokens) != want {
		return Normalized{}, &MalformedColorSpecError{
			Spec:   spec,
			Token:  strings.TrimSuffix(body, ")"),
			Reason: fmt.Sprintf("expected %d channels, got %d", want, len(tokens)),
		}
	}

	var hex strings.Builder
	hex.WriteByte('#')
	for _, tok := range tokens[:3] {
		tok = strings.TrimSpace(tok)
		v, err := parseDecimal(tok)
		if err != nil {
			return Normalized{}, &MalformedColorSpecError{Spec: spec, Token: tok, Reason: "channel is not a number"}
		}
		if v < 0 || v > 255 {
			return Normalized{}, &MalformedColorSpecError{Spec: spec, Token: tok, Reason: "channel out of range 0-255"}
		}
		fmt.Fprintf(&hex, "%02X", int(math.Round(v)))
	}

	n := Normalized{Hex: hex.String(), Opacity: 1}
	if want == 4 {
		tok := strings.TrimSpace(tokens[3])
		a, err := parseDecimal(tok)
		if err != nil {
			return Normalized{}, &MalformedColorSpecError{Spec: spec, Token: tok, Reason: "alpha is not a number"}
		}
		if a < 0 || a > 1 {
			return Normalized{}, &MalformedColorSpecError{Spec: spec, Token: tok, Reason: "alpha out of range 0-1"}
		}
		n.Opacity = a
	}
	return n, nil
}

// decimalRe accepts plain decimal numbers only: no exponents, hex floats,
// NaN or Inf.
var decimalRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

func parseDecimal(tok string) (float64, error) {
	if !decimalRe.MatchString(tok) {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(tok, 64)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// Resolve turns any spec, named colors included, into concrete channels
// with the normalized opacity applied as alpha.
func Resolve(spec string) (csscolorparser.Color, error) {
	n, err := Normalize(spec)
	if err != nil {
		return csscolorparser.Color{}, err
	}
	c, err := csscolorparser.Parse(n.Hex)
	if err != nil {
		return csscolorparser.Color{}, fmt.Errorf("resolve color %q: %w", spec, err)
	}
	c.A = n.Opacity
	return c, nil
}
