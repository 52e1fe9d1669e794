package imgproc

import (
	"image"
	"image/color"
	"testing"
)

func grayImage(w, h int, fill uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = fill
	}
	return g
}

func TestToGrayPreservesBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 6))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i] = 200
		src.Pix[i+3] = 255
	}

	g := ToGray(src)

	if g.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v, want %v", g.Bounds(), src.Bounds())
	}
}

func TestBinarize(t *testing.T) {
	g := grayImage(4, 1, 0)
	g.SetGray(0, 0, color.Gray{Y: 250})
	g.SetGray(1, 0, color.Gray{Y: 120})

	out := Binarize(g, 128)

	if out.GrayAt(0, 0).Y != 255 {
		t.Errorf("bright pixel = %d, want 255", out.GrayAt(0, 0).Y)
	}
	if out.GrayAt(1, 0).Y != 0 {
		t.Errorf("dark pixel = %d, want 0", out.GrayAt(1, 0).Y)
	}
}

func TestOtsuSeparatesBimodalImage(t *testing.T) {
	g := grayImage(20, 20, 10)
	for y := 0; y < 20; y++ {
		for x := 10; x < 20; x++ {
			g.SetGray(x, y, color.Gray{Y: 240})
		}
	}

	threshold := OtsuThreshold(g)
	if threshold < 10 || threshold >= 240 {
		t.Errorf("threshold = %d, want between the two modes", threshold)
	}

	out := Otsu(g)
	if out.GrayAt(0, 0).Y != 0 {
		t.Errorf("dark half = %d, want 0", out.GrayAt(0, 0).Y)
	}
	if out.GrayAt(15, 10).Y != 255 {
		t.Errorf("bright half = %d, want 255", out.GrayAt(15, 10).Y)
	}
}

func TestAdaptiveThreshold(t *testing.T) {
	g := grayImage(30, 30, 255)
	g.SetGray(15, 15, color.Gray{Y: 0})

	out := AdaptiveThreshold(g, 11, 2)

	if out.GrayAt(5, 5).Y != 255 {
		t.Errorf("background = %d, want 255", out.GrayAt(5, 5).Y)
	}
	if out.GrayAt(15, 15).Y != 0 {
		t.Errorf("ink pixel = %d, want 0", out.GrayAt(15, 15).Y)
	}
}

func TestMedian3RemovesSaltPepper(t *testing.T) {
	g := grayImage(9, 9, 255)
	g.SetGray(4, 4, color.Gray{Y: 0})

	out := Median3(g)

	if out.GrayAt(4, 4).Y != 255 {
		t.Errorf("isolated dark pixel survived: %d", out.GrayAt(4, 4).Y)
	}
}

func TestGaussian3PreservesUniform(t *testing.T) {
	out := Gaussian3(grayImage(8, 8, 128))

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if out.GrayAt(x, y).Y != 128 {
				t.Fatalf("pixel (%d,%d) = %d, want 128", x, y, out.GrayAt(x, y).Y)
			}
		}
	}
}

func TestSharpen3PreservesUniform(t *testing.T) {
	out := Sharpen3(grayImage(8, 8, 90))

	if out.GrayAt(3, 3).Y != 90 {
		t.Errorf("uniform pixel = %d, want 90", out.GrayAt(3, 3).Y)
	}
}

func TestMorphCloseFillsPinhole(t *testing.T) {
	g := grayImage(10, 10, 255)
	g.SetGray(5, 5, color.Gray{Y: 0})

	out := MorphClose(g, 2)

	if out.GrayAt(5, 5).Y != 255 {
		t.Errorf("pinhole survived closing: %d", out.GrayAt(5, 5).Y)
	}
}

func TestMorphOpenRemovesSpeck(t *testing.T) {
	g := grayImage(10, 10, 0)
	g.SetGray(5, 5, color.Gray{Y: 255})

	out := MorphOpen(g, 2)

	if out.GrayAt(5, 5).Y != 0 {
		t.Errorf("speck survived opening: %d", out.GrayAt(5, 5).Y)
	}
}

func TestCLAHEUniformStaysUniform(t *testing.T) {
	out := CLAHE(grayImage(64, 64, 100), 2.0, 8, 8)

	first := out.GrayAt(0, 0).Y
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if out.GrayAt(x, y).Y != first {
				t.Fatalf("pixel (%d,%d) = %d, want uniform %d", x, y, out.GrayAt(x, y).Y, first)
			}
		}
	}
}

func TestGrayStats(t *testing.T) {
	g := grayImage(10, 2, 0)
	for x := 0; x < 10; x++ {
		g.SetGray(x, 1, color.Gray{Y: 255})
	}

	mean, std := GrayStats(g)

	if mean != 127.5 {
		t.Errorf("mean = %v, want 127.5", mean)
	}
	if std != 127.5 {
		t.Errorf("std = %v, want 127.5", std)
	}
}

func TestRotateQuadrant(t *testing.T) {
	g := grayImage(4, 2, 128)

	out := Rotate(g, 90)

	b := out.Bounds()
	if b.Dx() != 2 || b.Dy() != 4 {
		t.Errorf("rotated size = %dx%d, want 2x4", b.Dx(), b.Dy())
	}

	same := Rotate(g, 0)
	if same.Bounds() != g.Bounds() {
		t.Errorf("zero rotation changed bounds: %v", same.Bounds())
	}
}
