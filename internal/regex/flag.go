package regex

import "fmt"

// Flag changes how a regex is applied to a line.
type Flag int

// The available regex flags.
const (
	// Default matches lines the expression matches.
	Default Flag = iota
	// Invert matches lines the expression does not match.
	Invert
	// Noop matches every line.
	Noop
)

// NewFlag parses a flag name.
func NewFlag(str string) (Flag, error) {
	switch str {
	case "default", "":
		return Default, nil
	case "invert":
		return Invert, nil
	case "noop":
		return Noop, nil
	default:
		return Default, fmt.Errorf("unknown regex flag '%s'", str)
	}
}

func (f Flag) String() string {
	switch f {
	case Default:
		return "default"
	case Invert:
		return "invert"
	case Noop:
		return "noop"
	default:
		return fmt.Sprintf("Flag(%d)", int(f))
	}
}
