package preset

import (
	"regexp"
	"strconv"
	"strings"
)

var specPattern = regexp.MustCompile(`^(\d+)x(\d+)`)

// ParseSpec parses a size specification such as "200x100,C".
//
// The second result is false when spec does not start with <w>x<h> or the
// dimensions do not fit in an int. Width and height are exactly the integers
// captured by that prefix; anything else in the first segment is ignored.
//
// Any second segment other than "C", including an empty one as in "50x60,",
// selects a cropbox.
//
// The fill segment is only honoured for cropbox directives and is not
// validated here: "200x100,X,zz" yields Fill "#zz", which the fit engine
// rejects with an explicit error.
func ParseSpec(spec string) (Directive, bool) {
	m := specPattern.FindStringSubmatch(spec)
	if m == nil {
		return Directive{}, false
	}
	width, err := strconv.Atoi(m[1])
	if err != nil {
		return Directive{}, false
	}
	height, err := strconv.Atoi(m[2])
	if err != nil {
		return Directive{}, false
	}

	d := Directive{Width: width, Height: height, Fill: DefaultFill}

	segments := strings.Split(spec, ",")
	if len(segments) < 2 {
		return d, true
	}
	if segments[1] == "C" {
		d.Crop = true
		return d, true
	}

	d.Cropbox = true
	if len(segments) > 2 && segments[2] != "" {
		d.Fill = "#" + segments[2]
	}
	return d, true
}
