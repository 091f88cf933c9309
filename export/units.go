package export

import "fmt"

// Unit is a length unit expressed as its size in metres.
type Unit float64

const (
	Meters      Unit = 1
	Centimeters Unit = 0.01
	Millimeters Unit = 0.001
	Inches      Unit = 0.0254
	Feet        Unit = 0.3048
)

// Convert expresses v, given in from, in to.
func Convert(v float64, from, to Unit) float64 {
	if from == to {
		return v
	}
	return v * float64(from) / float64(to)
}

// ParseUnit accepts m, cm, mm, in and ft.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "m", "meter", "meters":
		return Meters, nil
	case "cm":
		return Centimeters, nil
	case "mm":
		return Millimeters, nil
	case "in", "inch", "inches":
		return Inches, nil
	case "ft", "foot", "feet":
		return Feet, nil
	default:
		return 0, fmt.Errorf("unknown length unit %q", s)
	}
}
