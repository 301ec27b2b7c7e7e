// Package smooth denoises elevation windows and blends mesh elevation
// toward a flat reference near the domain edge.
package smooth

import (
	"math"

	"github.com/openwindlab/demforge/internal/raster"
)

// Denoise applies an isotropic Gaussian blur to the valid samples of the
// grid, in place. Masked-out and no-data samples are temporarily filled
// with the mean of the valid samples so they don't bias their neighbors;
// their smoothed values are discarded afterwards. A nil mask treats every
// non-no-data pixel as valid. sigma <= 0 is a no-op.
func Denoise(grid *raster.ElevationGrid, mask []bool, sigma float64) {
	if sigma <= 0 {
		return
	}

	valid := make([]bool, len(grid.Data))
	sum := 0.0
	n := 0
	for i := range grid.Data {
		ok := mask == nil || mask[i]
		if ok && grid.HasNoData && grid.Data[i] == grid.NoData {
			ok = false
		}
		valid[i] = ok
		if ok {
			sum += grid.Data[i]
			n++
		}
	}
	if n == 0 {
		return
	}
	fill := sum / float64(n)

	work := make([]float64, len(grid.Data))
	for i, v := range grid.Data {
		if valid[i] {
			work[i] = v
		} else {
			work[i] = fill
		}
	}

	kernel := gaussianKernel(sigma)
	work = convolveRows(work, grid.Rows, grid.Cols, kernel)
	work = convolveCols(work, grid.Rows, grid.Cols, kernel)

	for i := range grid.Data {
		if valid[i] {
			grid.Data[i] = work[i]
		}
	}
}

// gaussianKernel builds a normalized 1D Gaussian kernel truncated at four
// standard deviations.
func gaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// convolveRows convolves each row with the kernel, reflecting at the window
// edges so border samples see a mirrored copy of the row instead of a
// smeared edge value.
func convolveRows(data []float64, rows, cols int, kernel []float64) []float64 {
	radius := len(kernel) / 2
	out := make([]float64, len(data))
	for row := 0; row < rows; row++ {
		base := row * cols
		for col := 0; col < cols; col++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				c := reflectIndex(col+k, cols)
				acc += data[base+c] * kernel[k+radius]
			}
			out[base+col] = acc
		}
	}
	return out
}

func convolveCols(data []float64, rows, cols int, kernel []float64) []float64 {
	radius := len(kernel) / 2
	out := make([]float64, len(data))
	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				r := reflectIndex(row+k, rows)
				acc += data[r*cols+col] * kernel[k+radius]
			}
			out[row*cols+col] = acc
		}
	}
	return out
}

// reflectIndex mirrors an out-of-range index back into [0, n), repeating
// the edge sample: for n = 4 the extension reads d c b a | a b c d | d c b a.
// The loop covers kernels wider than the window.
func reflectIndex(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -1 - i
		} else {
			i = 2*n - 1 - i
		}
	}
	return i
}
