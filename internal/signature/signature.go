// Package signature derives perceptual fingerprints from image content and
// measures the normalized distance between them.
//
// The pipeline follows the classic grid-signature construction: the image is
// converted to grayscale, cropped to its high-energy window, sampled on a
// square grid of windowed gray-level means, and each grid point is described
// by its quantized differences to the eight surrounding grid points.
package signature

import (
	"math"
	"sort"

	"github.com/drforse/match/internal/errors"
)

// Signature is a flat vector of quantized neighbor differences. Two
// signatures are comparable only when produced with the same engine geometry.
type Signature []float32

const (
	defaultGridSize = 9
	// Gray-level differences below this magnitude count as identical.
	identicalTolerance = 2.0 / 255.0
)

// Engine converts image bytes into signatures. The zero value is not usable;
// construct with NewEngine.
type Engine struct {
	gridSize int
	cropLow  float64
	cropHigh float64
}

// NewEngine returns an engine with the standard 9x9 grid geometry and a
// 5%-95% energy crop window.
func NewEngine() *Engine {
	return &Engine{
		gridSize: defaultGridSize,
		cropLow:  0.05,
		cropHigh: 0.95,
	}
}

// Dims returns the dimensionality of signatures produced by this engine.
func (e *Engine) Dims() int {
	return e.gridSize * e.gridSize * 8
}

// Sign computes the signature of the image encoded in data.
func (e *Engine) Sign(data []byte) (Signature, error) {
	g, err := e.grid(data)
	if err != nil {
		return nil, err
	}
	return e.fromGrid(g), nil
}

// SignAll computes the signatures of all eight rotation/flip orientations of
// the image encoded in data. The as-is orientation comes first.
func (e *Engine) SignAll(data []byte) ([]Signature, error) {
	g, err := e.grid(data)
	if err != nil {
		return nil, err
	}
	out := make([]Signature, 0, len(orientations))
	for _, transform := range orientations {
		out = append(out, e.fromGrid(transform(g)))
	}
	return out, nil
}

// grid decodes data and reduces it to the gridSize x gridSize matrix of
// windowed gray-level means.
func (e *Engine) grid(data []byte) ([][]float64, error) {
	gray, err := decodeGray(data)
	if err != nil {
		return nil, err
	}

	top, bottom := cropBounds(rowEnergy(gray), e.cropLow, e.cropHigh)
	left, right := cropBounds(colEnergy(gray), e.cropLow, e.cropHigh)

	rows := bottom - top + 1
	cols := right - left + 1

	// Averaging window side, proportional to the cropped extent.
	window := int(0.5 + float64(min(rows, cols))/20.0)
	if window < 2 {
		window = 2
	}

	g := make([][]float64, e.gridSize)
	for i := range g {
		g[i] = make([]float64, e.gridSize)
		y := top + (i+1)*rows/(e.gridSize+1)
		for j := range g[i] {
			x := left + (j+1)*cols/(e.gridSize+1)
			g[i][j] = windowMean(gray, y, x, window)
		}
	}
	return g, nil
}

// fromGrid derives the quantized neighbor-difference vector from a grid of
// gray means.
func (e *Engine) fromGrid(g [][]float64) Signature {
	n := len(g)
	diffs := make([]float64, 0, n*n*8)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for _, off := range neighborOffsets {
				ni, nj := i+off[0], j+off[1]
				if ni < 0 || nj < 0 || ni >= n || nj >= n {
					diffs = append(diffs, 0)
					continue
				}
				diffs = append(diffs, g[ni][nj]-g[i][j])
			}
		}
	}

	posCut := medianAbove(diffs, identicalTolerance)
	negCut := -medianAbove(negated(diffs), identicalTolerance)

	sig := make(Signature, len(diffs))
	for k, d := range diffs {
		switch {
		case d > identicalTolerance:
			if posCut > 0 && d > posCut {
				sig[k] = 2
			} else {
				sig[k] = 1
			}
		case d < -identicalTolerance:
			if negCut < 0 && d < negCut {
				sig[k] = -2
			} else {
				sig[k] = -1
			}
		}
	}
	return sig
}

// neighborOffsets enumerates the 3x3 neighborhood around a grid point,
// row-major, center excluded.
var neighborOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// NormalizedDistance returns the dissimilarity of two signatures in [0, 1].
// Zero means identical. Two all-zero signatures are identical by definition.
func NormalizedDistance(a, b Signature) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.New(errors.TypeInvalidInput, "distance", "signature dimensionality mismatch")
	}
	var diff, na, nb float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		diff += d * d
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(na) + math.Sqrt(nb)
	if denom == 0 {
		return 0, nil
	}
	return math.Sqrt(diff) / denom, nil
}

// Distance32 is the float32 form of NormalizedDistance used by the
// nearest-neighbor graph. Mismatched lengths yield the maximal distance.
func Distance32(a, b []float32) float32 {
	if len(a) != len(b) {
		return 1
	}
	d, err := NormalizedDistance(Signature(a), Signature(b))
	if err != nil {
		return 1
	}
	return float32(d)
}

// medianAbove returns the median of the values strictly greater than tol, or
// 0 when there are none.
func medianAbove(vals []float64, tol float64) float64 {
	above := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v > tol {
			above = append(above, v)
		}
	}
	if len(above) == 0 {
		return 0
	}
	sort.Float64s(above)
	mid := len(above) / 2
	if len(above)%2 == 1 {
		return above[mid]
	}
	return (above[mid-1] + above[mid]) / 2
}

func negated(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = -v
	}
	return out
}

// windowMean averages the window x window square of gray levels centered at
// (y, x), clipped to the image bounds.
func windowMean(gray [][]float64, y, x, window int) float64 {
	half := window / 2
	y0, y1 := y-half, y+half
	x0, x1 := x-half, x+half
	if y0 < 0 {
		y0 = 0
	}
	if x0 < 0 {
		x0 = 0
	}
	if y1 >= len(gray) {
		y1 = len(gray) - 1
	}
	if x1 >= len(gray[0]) {
		x1 = len(gray[0]) - 1
	}

	var sum float64
	var count int
	for i := y0; i <= y1; i++ {
		for j := x0; j <= x1; j++ {
			sum += gray[i][j]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// rowEnergy sums the absolute vertical gray-level differences per row.
func rowEnergy(gray [][]float64) []float64 {
	energy := make([]float64, len(gray))
	for i := 1; i < len(gray); i++ {
		for j := range gray[i] {
			energy[i] += math.Abs(gray[i][j] - gray[i-1][j])
		}
	}
	return energy
}

// colEnergy sums the absolute horizontal gray-level differences per column.
func colEnergy(gray [][]float64) []float64 {
	if len(gray) == 0 {
		return nil
	}
	energy := make([]float64, len(gray[0]))
	for i := range gray {
		for j := 1; j < len(gray[i]); j++ {
			energy[j] += math.Abs(gray[i][j] - gray[i][j-1])
		}
	}
	return energy
}

// cropBounds locates the index window containing the central share of the
// cumulative energy. A flat energy profile keeps the full extent.
func cropBounds(energy []float64, low, high float64) (int, int) {
	var total float64
	for _, v := range energy {
		total += v
	}
	if total == 0 || len(energy) < 2 {
		return 0, max(len(energy)-1, 0)
	}

	lo, hi := 0, len(energy)-1
	var cum float64
	for i, v := range energy {
		cum += v
		if cum >= total*low {
			lo = i
			break
		}
	}
	cum = 0
	for i, v := range energy {
		cum += v
		if cum >= total*high {
			hi = i
			break
		}
	}
	if hi <= lo {
		return 0, len(energy) - 1
	}
	return lo, hi
}
