package ocr

import (
	"image"
	"image/color"
	"testing"
)

// halfPage is dark typewritten-like ink on the left half and blank paper
// on the right, big enough for CLAHE tiles to sit fully inside each side.
func halfPage() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(220)
			if x < 32 {
				v = 20
			}
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return g
}

func TestVariantsDefaults(t *testing.T) {
	vs := Variants(0, 0)

	if len(vs) != 3 {
		t.Fatalf("variants = %d, want 3", len(vs))
	}
	wantNames := []string{VariantBaseline, VariantInverted, VariantAdaptive}
	wantFloors := []float64{0.3, 0.3, 0.4}
	for i, v := range vs {
		if v.Name != wantNames[i] {
			t.Errorf("variant %d name = %q, want %q", i, v.Name, wantNames[i])
		}
		if v.MinConfidence != wantFloors[i] {
			t.Errorf("variant %q floor = %v, want %v", v.Name, v.MinConfidence, wantFloors[i])
		}
	}
}

func TestVariantsOverrides(t *testing.T) {
	vs := Variants(0.5, 0.7)

	if vs[0].MinConfidence != 0.5 || vs[1].MinConfidence != 0.5 {
		t.Errorf("baseline floors = %v/%v, want 0.5", vs[0].MinConfidence, vs[1].MinConfidence)
	}
	if vs[2].MinConfidence != 0.7 {
		t.Errorf("adaptive floor = %v, want 0.7", vs[2].MinConfidence)
	}
}

func TestBaselineBinarizesDocument(t *testing.T) {
	out := Variants(0, 0)[0].Apply(halfPage())

	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if v := out.GrayAt(x, y).Y; v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) = %d, want binary output", x, y, v)
			}
		}
	}
	if out.GrayAt(8, 8).Y != 0 {
		t.Errorf("ink side = %d, want 0", out.GrayAt(8, 8).Y)
	}
	if out.GrayAt(56, 32).Y != 255 {
		t.Errorf("paper side = %d, want 255", out.GrayAt(56, 32).Y)
	}
}

func TestInvertedIsComplementOfBaseline(t *testing.T) {
	page := halfPage()
	vs := Variants(0, 0)
	base := vs[0].Apply(page)
	inv := vs[1].Apply(page)

	for y := 0; y < 64; y += 7 {
		for x := 0; x < 64; x += 7 {
			if got, want := inv.GrayAt(x, y).Y, 255-base.GrayAt(x, y).Y; got != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestAdaptiveProducesBinary(t *testing.T) {
	out := Variants(0, 0)[2].Apply(halfPage())

	sawDark, sawLight := false, false
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			switch out.GrayAt(x, y).Y {
			case 0:
				sawDark = true
			case 255:
				sawLight = true
			default:
				t.Fatalf("pixel (%d,%d) = %d, want binary output", x, y, out.GrayAt(x, y).Y)
			}
		}
	}
	if !sawDark || !sawLight {
		t.Errorf("dark=%v light=%v, want both classes on a contrasting page", sawDark, sawLight)
	}
}
