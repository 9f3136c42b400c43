package preset

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultFill is the padding colour used when a directive does not name one.
const DefaultFill = "white"

var (
	// ErrDegenerate is returned for directives with a zero or negative box.
	ErrDegenerate = errors.New("width and height must be positive")

	// ErrConflictingModes is returned when both crop and cropbox are set.
	ErrConflictingModes = errors.New("crop and cropbox are mutually exclusive")
)

// Strategy identifies which fit operation a directive asks for.
type Strategy int

const (
	// StrategyResize scales down to fit inside the box, keeping aspect ratio.
	StrategyResize Strategy = iota
	// StrategyCrop scales to cover the box and trims the overflow.
	StrategyCrop
	// StrategyCropbox scales to the box width and pads to the box height.
	StrategyCropbox
)

// String returns the lowercase strategy name used in logs and metrics.
func (s Strategy) String() string {
	switch s {
	case StrategyCrop:
		return "crop"
	case StrategyCropbox:
		return "cropbox"
	default:
		return "resize"
	}
}

// Directive is a structured sizing instruction.
//
// Crop and Cropbox are mutually exclusive. With neither set the directive
// means a bounded resize that preserves the aspect ratio.
type Directive struct {
	Width   int    `json:"width" yaml:"width" toml:"width"`
	Height  int    `json:"height" yaml:"height" toml:"height"`
	Crop    bool   `json:"crop" yaml:"crop" toml:"crop"`
	Cropbox bool   `json:"cropbox" yaml:"cropbox" toml:"cropbox"`
	Fill    string `json:"fill" yaml:"fill" toml:"fill"`
}

// Strategy reports which fit operation the directive selects.
func (d Directive) Strategy() Strategy {
	switch {
	case d.Crop:
		return StrategyCrop
	case d.Cropbox:
		return StrategyCropbox
	default:
		return StrategyResize
	}
}

// Validate checks the preconditions the fit operations rely on.
func (d Directive) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrDegenerate, d.Width, d.Height)
	}
	if d.Crop && d.Cropbox {
		return ErrConflictingModes
	}
	return nil
}

// String renders the directive back into specification form.
//
// The form only carries hex fills. A named fill such as "red" or the default
// "white" is left out, so parsing the result gives the default fill; callers
// that need the exact colour should report Fill alongside.
func (d Directive) String() string {
	spec := fmt.Sprintf("%dx%d", d.Width, d.Height)
	switch d.Strategy() {
	case StrategyCrop:
		spec += ",C"
	case StrategyCropbox:
		spec += ",B"
		if strings.HasPrefix(d.Fill, "#") {
			spec += "," + strings.TrimPrefix(d.Fill, "#")
		}
	}
	return spec
}
