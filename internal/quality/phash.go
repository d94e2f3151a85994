package quality

import (
	"fmt"
	"hash/fnv"
	"image"
	"math"
	"math/bits"
	"sort"
	"strconv"

	"golang.org/x/image/draw"
)

const (
	phashSample = 32 // downsample edge before the DCT
	phashBlock  = 8  // low-frequency block kept for the hash
)

// PerceptualHash returns a 64-bit DCT hash as a 16-char hex string. The
// image is downsampled to 32x32 grayscale, transformed, and the 8x8
// low-frequency block is thresholded against its median. Robust to minor
// re-encoding, resizing, and compression differences.
func PerceptualHash(img image.Image) string {
	gray := image.NewGray(image.Rect(0, 0, phashSample, phashSample))
	draw.CatmullRom.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	pixels := make([]float64, phashSample*phashSample)
	for i, p := range gray.Pix {
		pixels[i] = float64(p)
	}

	freq := dct2d(pixels, phashSample)

	low := make([]float64, 0, phashBlock*phashBlock)
	for y := 0; y < phashBlock; y++ {
		for x := 0; x < phashBlock; x++ {
			low = append(low, freq[y*phashSample+x])
		}
	}

	med := median(low)
	var hash uint64
	for _, v := range low {
		hash <<= 1
		if v > med {
			hash |= 1
		}
	}
	return fmt.Sprintf("%016x", hash)
}

// fallbackHash fingerprints undecodable bytes so the duplicate ledger still
// gets a stable 64-bit entry for the submission.
func fallbackHash(raw []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(raw)
	return fmt.Sprintf("%016x", h.Sum64())
}

// HammingDistance counts differing bits between two 16-hex hashes.
// Returns 64 (maximal distance) when either hash is malformed.
func HammingDistance(a, b string) int {
	ua, errA := strconv.ParseUint(a, 16, 64)
	ub, errB := strconv.ParseUint(b, 16, 64)
	if errA != nil || errB != nil {
		return 64
	}
	return bits.OnesCount64(ua ^ ub)
}

// dct2d applies an orthonormal DCT-II to an n x n plane, rows then columns.
func dct2d(pixels []float64, n int) []float64 {
	tmp := make([]float64, n*n)
	out := make([]float64, n*n)

	row := make([]float64, n)
	for y := 0; y < n; y++ {
		copy(row, pixels[y*n:(y+1)*n])
		coeffs := dct1d(row)
		copy(tmp[y*n:(y+1)*n], coeffs)
	}

	col := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = tmp[y*n+x]
		}
		coeffs := dct1d(col)
		for y := 0; y < n; y++ {
			out[y*n+x] = coeffs[y]
		}
	}
	return out
}

func dct1d(in []float64) []float64 {
	n := len(in)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += in[i] * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		out[k] = sum * scale
	}
	return out
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
