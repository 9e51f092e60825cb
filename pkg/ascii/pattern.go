package ascii

import "math"

// Encode renders the synthetic animated luminance field for one tick.
// The field is a radial gradient centered in the grid whose warmth swings
// with a sine of the tick index, so consecutive ticks animate smoothly.
// Output depends only on (tick, width, height).
func Encode(tick uint64, width, height uint16) *Frame {
	data := make([]byte, 0, int(width)*int(height)*3)
	t := float64(tick) * 0.1

	cx := float64(width) / 2.0
	cy := float64(height) / 2.0
	variation := math.Abs(math.Sin(t) * 20.0)

	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			dx := (float64(x) - cx) / cx
			dy := (float64(y) - cy) / cy
			dist := math.Sqrt(dx*dx + dy*dy)

			intensity := (1.0 - math.Min(dist, 1.0)) * 200.0
			r := clampByte(intensity + variation)
			g := clampByte(intensity)
			b := clampByte(intensity - variation)
			data = append(data, r, g, b)
		}
	}

	return FromRGB(data, width, height, false)
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
