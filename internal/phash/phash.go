// Package phash computes perceptual hashes of image payloads for
// similarity comparison. No library in the dependency pool owns perceptual
// hashing or a DCT transform, so every algorithm here is implemented
// directly on the standard image and math packages.
package phash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/bits"

	_ "golang.org/x/image/webp"

	"veritas/internal/veritaserr"
)

// Algorithm selects a perceptual hash construction.
type Algorithm string

const (
	AlgorithmMean      Algorithm = "mean"
	AlgorithmGradient  Algorithm = "gradient"
	AlgorithmDCT       Algorithm = "dct"
	AlgorithmBlockhash Algorithm = "blockhash"
)

// DefaultSize is the default square grid side (8x8 = 64 bits).
const DefaultSize = 8

// DefaultThreshold is the default Hamming-distance similarity bound for
// 64-bit hashes.
const DefaultThreshold = 10

// Hash is a perceptual hash tagged with the algorithm and size that
// produced it; hashes from different algorithms or of different byte
// lengths are not comparable.
type Hash struct {
	Algorithm Algorithm
	Bytes     []byte
}

// Compute decodes payload via the standard format detectors (JPEG, PNG,
// GIF, WebP) and derives a perceptual hash with algo at size x size bits.
// Undecodable bytes return a PerceptualHashError; callers must treat this
// as soft — the seal build still succeeds without a perceptual hash.
func Compute(payload []byte, algo Algorithm, size int) (Hash, error) {
	if size <= 0 {
		size = DefaultSize
	}

	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return Hash{}, &veritaserr.PerceptualHashError{Message: "decode image", Cause: err}
	}

	gray := toGrayGrid(img, gridSizeFor(algo, size))

	var bitsOut []bool
	switch algo {
	case AlgorithmMean:
		bitsOut = meanHash(gray)
	case AlgorithmGradient:
		bitsOut = gradientHash(gray)
	case AlgorithmDCT:
		bitsOut = dctHash(gray, size)
	case AlgorithmBlockhash:
		bitsOut = blockhash(gray)
	default:
		return Hash{}, &veritaserr.PerceptualHashError{Message: fmt.Sprintf("unknown algorithm %q", algo)}
	}

	return Hash{Algorithm: algo, Bytes: packBits(bitsOut)}, nil
}

// gridSizeFor returns the square sampling grid side needed before bit
// extraction. Gradient needs one extra column; DCT samples at 4x before
// transforming to keep low-frequency coefficients meaningful.
func gridSizeFor(algo Algorithm, size int) int {
	switch algo {
	case AlgorithmGradient:
		return size + 1
	case AlgorithmDCT:
		return size * 4
	default:
		return size
	}
}

// toGrayGrid resamples img to an n x n grid of 0..255 luminance values
// using nearest-neighbour sampling.
func toGrayGrid(img image.Image, n int) [][]float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	grid := make([][]float64, n)
	for y := 0; y < n; y++ {
		grid[y] = make([]float64, n)
		srcY := bounds.Min.Y + y*h/n
		for x := 0; x < n; x++ {
			srcX := bounds.Min.X + x*w/n
			r, g, b, _ := img.At(srcX, srcY).RGBA()
			lum := (0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8))
			grid[y][x] = lum
		}
	}
	return grid
}

func gridMean(grid [][]float64) float64 {
	var sum float64
	n := len(grid)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			sum += grid[y][x]
		}
	}
	return sum / float64(n*n)
}

// meanHash sets a bit for every pixel at or above the grid mean.
func meanHash(grid [][]float64) []bool {
	mean := gridMean(grid)
	n := len(grid)

	out := make([]bool, 0, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			out = append(out, grid[y][x] >= mean)
		}
	}
	return out
}

// gradientHash sets a bit wherever a pixel is brighter than its left
// neighbour. grid is (size+1) x (size+1); output is size x size bits.
func gradientHash(grid [][]float64) []bool {
	n := len(grid) - 1

	out := make([]bool, 0, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			out = append(out, grid[y][x+1] > grid[y][x])
		}
	}
	return out
}

// dctHash applies a 2D type-II discrete cosine transform to the sampling
// grid and compares each coefficient of the low-frequency size x size block
// with the median of that block, the DC term left out of the median,
// following the standard pHash construction.
func dctHash(grid [][]float64, size int) []bool {
	n := len(grid)
	coeffs := dct2D(grid, n)

	low := make([]float64, 0, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			low = append(low, coeffs[y][x])
		}
	}

	median := medianOf(low[1:]) // exclude the DC term at [0][0]

	out := make([]bool, 0, size*size)
	for i, v := range low {
		if i == 0 {
			out = append(out, v >= median)
			continue
		}
		out = append(out, v > median)
	}
	return out
}

// dct2D computes a naive O(n^3) 2D DCT-II; n is small (32 by default) so
// this stays cheap.
func dct2D(grid [][]float64, n int) [][]float64 {
	rowDCT := make([][]float64, n)
	for y := 0; y < n; y++ {
		rowDCT[y] = dct1D(grid[y])
	}

	out := make([][]float64, n)
	for x := 0; x < n; x++ {
		col := make([]float64, n)
		for y := 0; y < n; y++ {
			col[y] = rowDCT[y][x]
		}
		colDCT := dct1D(col)
		for y := 0; y < n; y++ {
			if out[y] == nil {
				out[y] = make([]float64, n)
			}
			out[y][x] = colDCT[y]
		}
	}
	return out
}

func dct1D(in []float64) []float64 {
	n := len(in)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i, v := range in {
			sum += v * math.Cos(math.Pi/float64(n)*(float64(i)+0.5)*float64(k))
		}
		if k == 0 {
			sum *= math.Sqrt(1.0 / float64(n))
		} else {
			sum *= math.Sqrt(2.0 / float64(n))
		}
		out[k] = sum
	}
	return out
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// blockhash compares each grid sample (one nearest-neighbour sample per
// cell from toGrayGrid) against the median of all samples, in the manner
// of the Blockhash quick method.
func blockhash(grid [][]float64) []bool {
	n := len(grid)
	flat := make([]float64, 0, n*n)
	for y := 0; y < n; y++ {
		flat = append(flat, grid[y]...)
	}
	median := medianOf(flat)

	out := make([]bool, 0, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			out = append(out, grid[y][x] >= median)
		}
	}
	return out
}

func packBits(in []bool) []byte {
	out := make([]byte, (len(in)+7)/8)
	for i, bit := range in {
		if bit {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// HammingDistance counts differing bits between a and b. Both must be
// non-empty and of equal length.
func HammingDistance(a, b []byte) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("phash: hashes of different byte lengths are not comparable (%d vs %d)", len(a), len(b))
	}

	dist := 0
	for i := range a {
		dist += bits.OnesCount8(a[i] ^ b[i])
	}
	return dist, nil
}

// Similar reports whether two hashes of the same algorithm and length are
// within threshold bits of each other.
func Similar(a, b Hash, threshold int) (bool, error) {
	if a.Algorithm != b.Algorithm {
		return false, fmt.Errorf("phash: hashes from different algorithms (%s vs %s) are not comparable", a.Algorithm, b.Algorithm)
	}

	dist, err := HammingDistance(a.Bytes, b.Bytes)
	if err != nil {
		return false, err
	}
	return dist <= threshold, nil
}
