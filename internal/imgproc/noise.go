package imgproc

import (
	"image"
	"image/color"
)

// Noise reduction modes accepted by Reduce.
const (
	NoiseGaussian   = "gaussian"
	NoiseSaltPepper = "salt_pepper"
	NoiseAuto       = "auto"
)

// NoiseStats describes the measured noise characteristics of an image.
type NoiseStats struct {
	NoiseLevel    float64 `json:"noise_level"`
	MeanIntensity float64 `json:"mean_intensity"`
	Contrast      float64 `json:"contrast"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	TotalPixels   int     `json:"total_pixels"`
}

// Clean runs the full denoising chain on encoded image bytes and returns
// the cleaned image as PNG. The original bytes come back unchanged when
// they cannot be decoded, so the caller always has something to feed the
// recognizer.
func Clean(data []byte) []byte {
	img, err := Decode(data)
	if err != nil {
		return data
	}

	cleaned := CleanGray(ToGray(img))

	out, err := EncodePNG(cleaned)
	if err != nil {
		return data
	}
	return out
}

// CleanGray applies the denoising chain to a grayscale image: median and
// Gaussian filtering, contrast equalization, close/open morphology, then
// adaptive binarization.
func CleanGray(g *image.Gray) *image.Gray {
	denoised := Median3(g)
	denoised = Gaussian3(denoised)
	enhanced := CLAHE(denoised, 2.0, 8, 8)
	cleaned := MorphClose(enhanced, 2)
	cleaned = MorphOpen(cleaned, 2)
	return AdaptiveThreshold(cleaned, 11, 2)
}

// Reduce applies the reduction matched to the reported noise type:
// Gaussian blur for gaussian noise, a median filter for salt-and-pepper,
// and the full chain otherwise.
func Reduce(data []byte, noiseType string) []byte {
	img, err := Decode(data)
	if err != nil {
		return data
	}
	gray := ToGray(img)

	var result *image.Gray
	switch noiseType {
	case NoiseGaussian:
		result = Gaussian3(gray)
	case NoiseSaltPepper:
		result = Median3(gray)
	default:
		result = CleanGray(gray)
	}

	out, err := EncodePNG(result)
	if err != nil {
		return data
	}
	return out
}

// EnhanceText sharpens text strokes, re-equalizes contrast, binarizes and
// strips small artifacts. Returns the original bytes when decoding fails.
func EnhanceText(data []byte) []byte {
	img, err := Decode(data)
	if err != nil {
		return data
	}

	sharpened := Sharpen3(ToGray(img))
	enhanced := CLAHE(sharpened, 2.0, 8, 8)
	binary := AdaptiveThreshold(enhanced, 11, 2)
	cleaned := RemoveSmallComponents(binary, 10)

	out, err := EncodePNG(cleaned)
	if err != nil {
		return data
	}
	return out
}

// NoiseLevel estimates image noise as the intensity standard deviation
// scaled to [0,1]. Unreadable bytes score 0.
func NoiseLevel(data []byte) float64 {
	img, err := Decode(data)
	if err != nil {
		return 0
	}

	_, std := GrayStats(ToGray(img))
	level := std / 255.0
	if level > 1 {
		level = 1
	}
	return level
}

// Statistics measures noise level, brightness and contrast of an image.
func Statistics(data []byte) (NoiseStats, error) {
	img, err := Decode(data)
	if err != nil {
		return NoiseStats{}, err
	}

	gray := ToGray(img)
	mean, std := GrayStats(gray)

	stats := NoiseStats{
		NoiseLevel:    std / 255.0,
		MeanIntensity: mean / 255.0,
		Width:         gray.Bounds().Dx(),
		Height:        gray.Bounds().Dy(),
		TotalPixels:   gray.Bounds().Dx() * gray.Bounds().Dy(),
	}
	if mean > 0 {
		stats.Contrast = std / mean
	}
	return stats, nil
}

// RemoveSmallComponents keeps only 8-connected white components of at
// least minSize pixels in a binary image. Everything else becomes black.
func RemoveSmallComponents(g *image.Gray, minSize int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w == 0 || h == 0 {
		return out
	}

	labels := make([]int, w*h)
	label := 0
	stack := make([]int, 0, 64)
	component := make([]int, 0, 64)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if labels[idx] != 0 || g.GrayAt(b.Min.X+x, b.Min.Y+y).Y == 0 {
				continue
			}

			label++
			stack = append(stack[:0], idx)
			component = component[:0]
			labels[idx] = label

			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				component = append(component, cur)

				cx, cy := cur%w, cur/w
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := cx+dx, cy+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						nIdx := ny*w + nx
						if labels[nIdx] != 0 || g.GrayAt(b.Min.X+nx, b.Min.Y+ny).Y == 0 {
							continue
						}
						labels[nIdx] = label
						stack = append(stack, nIdx)
					}
				}
			}

			if len(component) >= minSize {
				for _, p := range component {
					out.SetGray(b.Min.X+p%w, b.Min.Y+p/w, color.Gray{Y: 255})
				}
			}
		}
	}
	return out
}
