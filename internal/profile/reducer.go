package profile

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Reduce projects bias profiles onto their first dims principal components
// so a project's audits can be laid out on a 2-D map. Profiles must all have
// the same length.
func Reduce(profiles [][]float32, dims int) ([][]float64, error) {
	if len(profiles) == 0 {
		return nil, nil
	}

	n := len(profiles)
	d := len(profiles[0])
	for i, p := range profiles {
		if len(p) != d {
			return nil, fmt.Errorf("profile %d has %d dims, want %d", i, len(p), d)
		}
	}

	if dims > d {
		dims = d
	}
	if dims > n {
		dims = n
	}

	data := make([]float64, n*d)
	for i, p := range profiles {
		for j, v := range p {
			data[i*d+j] = float64(v)
		}
	}
	X := mat.NewDense(n, d, data)

	// Center each dimension.
	centered := mat.NewDense(n, d, nil)
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, X)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, X.At(i, j)-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}

	var v mat.Dense
	svd.VTo(&v)

	vReduced := v.Slice(0, d, 0, dims).(*mat.Dense)
	projected := mat.NewDense(n, dims, nil)
	projected.Mul(centered, vReduced)

	reduced := make([][]float64, n)
	for i := 0; i < n; i++ {
		reduced[i] = make([]float64, dims)
		for j := 0; j < dims; j++ {
			reduced[i][j] = projected.At(i, j)
		}
	}

	return normalizeCoordinates(reduced), nil
}

// normalizeCoordinates scales coordinates to [-1, 1] per dimension.
func normalizeCoordinates(coords [][]float64) [][]float64 {
	if len(coords) == 0 {
		return coords
	}

	dims := len(coords[0])
	mins := make([]float64, dims)
	maxs := make([]float64, dims)
	for j := 0; j < dims; j++ {
		mins[j] = math.MaxFloat64
		maxs[j] = -math.MaxFloat64
	}

	for _, coord := range coords {
		for j, v := range coord {
			if v < mins[j] {
				mins[j] = v
			}
			if v > maxs[j] {
				maxs[j] = v
			}
		}
	}

	normalized := make([][]float64, len(coords))
	for i, coord := range coords {
		normalized[i] = make([]float64, dims)
		for j, v := range coord {
			rng := maxs[j] - mins[j]
			if rng == 0 {
				normalized[i][j] = 0
			} else {
				normalized[i][j] = 2*(v-mins[j])/rng - 1
			}
		}
	}

	return normalized
}
