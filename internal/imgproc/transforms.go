package imgproc

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
)

// ToGray converts any image to 8-bit grayscale.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}

// Binarize maps every pixel above the threshold to white and the rest to black.
func Binarize(g *image.Gray, threshold uint8) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := uint8(0)
			if g.GrayAt(x, y).Y > threshold {
				v = 255
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

// InvertGray flips every pixel value.
func InvertGray(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x, y, color.Gray{Y: 255 - g.GrayAt(x, y).Y})
		}
	}
	return out
}

// OtsuThreshold picks the global threshold maximizing between-class variance.
func OtsuThreshold(g *image.Gray) uint8 {
	b := g.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}

	var hist [256]int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[g.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var sumB, wB, best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// Otsu binarizes with the automatically chosen Otsu threshold.
func Otsu(g *image.Gray) *image.Gray {
	return Binarize(g, OtsuThreshold(g))
}

// AdaptiveThreshold binarizes each pixel against the mean of its local
// blockSize window minus c. The window is clipped at the image borders.
func AdaptiveThreshold(g *image.Gray, blockSize, c int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w == 0 || h == 0 {
		return out
	}
	if blockSize < 3 {
		blockSize = 3
	}
	if blockSize%2 == 0 {
		blockSize++
	}

	// Integral image gives every window sum in constant time.
	integral := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			rowSum += int(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	half := blockSize / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := x-half, y-half
			if x0 < 0 {
				x0 = 0
			}
			if y0 < 0 {
				y0 = 0
			}
			x1, y1 := x+half+1, y+half+1
			if x1 > w {
				x1 = w
			}
			if y1 > h {
				y1 = h
			}

			area := (x1 - x0) * (y1 - y0)
			windowSum := integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] -
				integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
			mean := windowSum / area

			v := uint8(0)
			if int(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y) > mean-c {
				v = 255
			}
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: v})
		}
	}
	return out
}

// Median3 applies a 3x3 median filter, the standard remedy for
// salt-and-pepper noise.
func Median3(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	window := make([]uint8, 0, 9)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X || ny < b.Min.Y || nx >= b.Max.X || ny >= b.Max.Y {
						continue
					}
					window = append(window, g.GrayAt(nx, ny).Y)
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			out.SetGray(x, y, color.Gray{Y: window[len(window)/2]})
		}
	}
	return out
}

var gaussian3Kernel = [3][3]int{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

// Gaussian3 applies a 3x3 Gaussian blur.
func Gaussian3(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum, weight := 0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X || ny < b.Min.Y || nx >= b.Max.X || ny >= b.Max.Y {
						continue
					}
					k := gaussian3Kernel[dy+1][dx+1]
					sum += k * int(g.GrayAt(nx, ny).Y)
					weight += k
				}
			}
			out.SetGray(x, y, color.Gray{Y: uint8(sum / weight)})
		}
	}
	return out
}

var sharpen3Kernel = [3][3]int{
	{-1, -1, -1},
	{-1, 9, -1},
	{-1, -1, -1},
}

// Sharpen3 convolves with a 3x3 sharpening kernel, replicating border
// pixels and clamping the result to [0,255].
func Sharpen3(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X {
						nx = b.Min.X
					}
					if ny < b.Min.Y {
						ny = b.Min.Y
					}
					if nx >= b.Max.X {
						nx = b.Max.X - 1
					}
					if ny >= b.Max.Y {
						ny = b.Max.Y - 1
					}
					sum += sharpen3Kernel[dy+1][dx+1] * int(g.GrayAt(nx, ny).Y)
				}
			}
			out.SetGray(x, y, color.Gray{Y: clampByte(sum)})
		}
	}
	return out
}

// Dilate grows bright regions with a k by k rectangular kernel.
func Dilate(g *image.Gray, k int) *image.Gray {
	if k < 2 {
		return g
	}
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var maxV uint8
			for dy := 0; dy < k; dy++ {
				for dx := 0; dx < k; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= b.Max.X || ny >= b.Max.Y {
						continue
					}
					if v := g.GrayAt(nx, ny).Y; v > maxV {
						maxV = v
					}
				}
			}
			out.SetGray(x, y, color.Gray{Y: maxV})
		}
	}
	return out
}

// Erode shrinks bright regions with a k by k rectangular kernel.
func Erode(g *image.Gray, k int) *image.Gray {
	if k < 2 {
		return g
	}
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			minV := uint8(255)
			for dy := 0; dy < k; dy++ {
				for dx := 0; dx < k; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= b.Max.X || ny >= b.Max.Y {
						continue
					}
					if v := g.GrayAt(nx, ny).Y; v < minV {
						minV = v
					}
				}
			}
			out.SetGray(x, y, color.Gray{Y: minV})
		}
	}
	return out
}

// MorphClose fills small dark holes: dilation followed by erosion.
func MorphClose(g *image.Gray, k int) *image.Gray {
	return Erode(Dilate(g, k), k)
}

// MorphOpen removes small bright specks: erosion followed by dilation.
func MorphOpen(g *image.Gray, k int) *image.Gray {
	return Dilate(Erode(g, k), k)
}

// CLAHE applies contrast limited adaptive histogram equalization over a
// tilesX by tilesY grid, bilinearly interpolating between neighboring tile
// mappings to avoid seams.
func CLAHE(g *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w == 0 || h == 0 {
		return out
	}
	if tilesX < 1 {
		tilesX = 1
	}
	if tilesY < 1 {
		tilesY = 1
	}
	if tilesX > w {
		tilesX = w
	}
	if tilesY > h {
		tilesY = h
	}

	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := x0+tileW, y0+tileH
			if x1 > w {
				x1 = w
			}
			if y1 > h {
				y1 = h
			}

			var hist [256]int
			count := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[g.GrayAt(b.Min.X+x, b.Min.Y+y).Y]++
					count++
				}
			}
			luts[ty*tilesX+tx] = equalizeLUT(hist, count, clipLimit)
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			fy := (float64(y)+0.5)/float64(tileH) - 0.5

			tx0 := int(math.Floor(fx))
			ty0 := int(math.Floor(fy))
			wx := fx - float64(tx0)
			wy := fy - float64(ty0)

			tx1, ty1 := tx0+1, ty0+1
			tx0 = clampTile(tx0, tilesX)
			tx1 = clampTile(tx1, tilesX)
			ty0 = clampTile(ty0, tilesY)
			ty1 = clampTile(ty1, tilesY)

			v := g.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			v00 := float64(luts[ty0*tilesX+tx0][v])
			v01 := float64(luts[ty0*tilesX+tx1][v])
			v10 := float64(luts[ty1*tilesX+tx0][v])
			v11 := float64(luts[ty1*tilesX+tx1][v])

			top := v00*(1-wx) + v01*wx
			bottom := v10*(1-wx) + v11*wx
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: uint8(top*(1-wy) + bottom*wy + 0.5)})
		}
	}
	return out
}

// equalizeLUT builds the clipped-histogram equalization mapping for one tile.
func equalizeLUT(hist [256]int, count int, clipLimit float64) [256]uint8 {
	var lut [256]uint8
	if count == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	limit := int(clipLimit * float64(count) / 256.0)
	if limit < 1 {
		limit = 1
	}

	clipped := 0
	for i, n := range hist {
		if n > limit {
			clipped += n - limit
			hist[i] = limit
		}
	}

	redist := clipped / 256
	residual := clipped % 256
	for i := range hist {
		hist[i] += redist
		if i < residual {
			hist[i]++
		}
	}

	cum := 0
	scale := 255.0 / float64(count)
	for i, n := range hist {
		cum += n
		lut[i] = uint8(float64(cum)*scale + 0.5)
	}
	return lut
}

// GrayStats returns the mean and standard deviation of pixel intensities.
func GrayStats(g *image.Gray) (mean, std float64) {
	b := g.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0, 0
	}

	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := float64(g.GrayAt(x, y).Y)
			sum += v
			sumSq += v * v
		}
	}

	mean = sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clampTile(t, tiles int) int {
	if t < 0 {
		return 0
	}
	if t >= tiles {
		return tiles - 1
	}
	return t
}
