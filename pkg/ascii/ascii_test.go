package ascii

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeDeterministic(t *testing.T) {
	a := Encode(7, 40, 30)
	b := Encode(7, 40, 30)

	if !bytes.Equal(a.Marshal(), b.Marshal()) {
		t.Error("Encode(7, 40, 30) produced different bytes across calls")
	}
}

func TestEncodeVariesWithTick(t *testing.T) {
	a := Encode(0, 40, 30)
	b := Encode(8, 40, 30)

	if bytes.Equal(a.Marshal(), b.Marshal()) {
		t.Error("Encode output identical for ticks 0 and 8; want animation")
	}
}

func TestEncodeGridFullyPopulated(t *testing.T) {
	for _, tick := range []uint64{0, 1, 13, 1000} {
		f := Encode(tick, 40, 30)

		if f.Width != 40 || f.Height != 30 {
			t.Fatalf("Encode(%d) dimensions = %dx%d; want 40x30", tick, f.Width, f.Height)
		}
		if len(f.Cells) != 40*30 {
			t.Fatalf("Encode(%d) has %d cells; want %d", tick, len(f.Cells), 40*30)
		}
		for i, c := range f.Cells {
			if !strings.ContainsRune(Ramp, rune(c.Glyph)) {
				t.Fatalf("Encode(%d) cell %d glyph %q outside the ramp", tick, i, c.Glyph)
			}
		}
	}
}

func TestGlyphForBounds(t *testing.T) {
	if GlyphFor(0) != Ramp[0] {
		t.Errorf("GlyphFor(0) = %q; want %q", GlyphFor(0), Ramp[0])
	}
	if GlyphFor(255) != Ramp[len(Ramp)-1] {
		t.Errorf("GlyphFor(255) = %q; want %q", GlyphFor(255), Ramp[len(Ramp)-1])
	}

	// The ramp mapping must be monotonic in luminance.
	prev := -1
	for lum := 0; lum <= 255; lum++ {
		idx := strings.IndexByte(Ramp, GlyphFor(uint8(lum)))
		if idx < prev {
			t.Fatalf("GlyphFor not monotonic at luminance %d", lum)
		}
		prev = idx
	}
}

func TestLuminance(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    uint8
	}{
		{0, 0, 0, 0},
		{255, 0, 0, 76},
		{0, 255, 0, 149},
		{0, 0, 255, 29},
	}

	for _, tt := range tests {
		if got := Luminance(tt.r, tt.g, tt.b); got != tt.want {
			t.Errorf("Luminance(%d, %d, %d) = %d; want %d", tt.r, tt.g, tt.b, got, tt.want)
		}
	}

	// White lands within a float rounding step of full brightness.
	if got := Luminance(255, 255, 255); got < 254 {
		t.Errorf("Luminance(255, 255, 255) = %d; want >= 254", got)
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	f := Encode(3, 8, 6)

	data := f.Marshal()
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if got.Width != f.Width || got.Height != f.Height {
		t.Errorf("dimensions = %dx%d; want %dx%d", got.Width, got.Height, f.Width, f.Height)
	}
	if !bytes.Equal(got.Marshal(), data) {
		t.Error("round trip produced different bytes")
	}
}

func TestUnmarshalRejectsBadData(t *testing.T) {
	if _, err := Unmarshal([]byte{0x01, 0x00}); err != ErrFrameTruncated {
		t.Errorf("Unmarshal(short) error = %v; want ErrFrameTruncated", err)
	}

	// Header declares 2x2 but carries a single cell.
	bad := []byte{0x02, 0x00, 0x02, 0x00, '#', 1, 2, 3}
	if _, err := Unmarshal(bad); err != ErrFrameLength {
		t.Errorf("Unmarshal(mismatched) error = %v; want ErrFrameLength", err)
	}
}

func TestFromRGBShortInput(t *testing.T) {
	// Only one pixel of data for a 2x2 grid: the rest must render blank.
	f := FromRGB([]byte{200, 200, 200}, 2, 2, false)

	if len(f.Cells) != 4 {
		t.Fatalf("FromRGB() has %d cells; want 4", len(f.Cells))
	}
	if f.Cells[0].Glyph == ' ' {
		t.Error("cell 0 should carry a bright glyph")
	}
	for i := 1; i < 4; i++ {
		if f.Cells[i].Glyph != ' ' {
			t.Errorf("cell %d = %q; want blank", i, f.Cells[i].Glyph)
		}
	}
}

func TestFromRGBMono(t *testing.T) {
	f := FromRGB([]byte{250, 10, 10}, 1, 1, true)

	c := f.Cells[0]
	if c.R != c.G || c.G != c.B {
		t.Errorf("mono cell color = (%d, %d, %d); want greyscale", c.R, c.G, c.B)
	}
}

func TestFrameString(t *testing.T) {
	f := New(3, 2)
	s := f.String()

	want := "   \n   \n"
	if s != want {
		t.Errorf("String() = %q; want %q", s, want)
	}
}
