// Package dct implements the orthonormal 2-D discrete cosine transform
// used for frequency-domain watermarking. The transform is expressed as
// matrix products Y = Ch * X * Cw' with cached per-size coefficient
// matrices, so forward and inverse are exact transposes of each other.
package dct

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

var (
	cacheMu sync.Mutex
	cache   = map[int]*mat.Dense{}
)

// matrixFor returns the orthonormal DCT-II coefficient matrix of size n.
func matrixFor(n int) *mat.Dense {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if c, ok := cache[n]; ok {
		return c
	}
	c := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		a := math.Sqrt(2 / float64(n))
		if k == 0 {
			a = math.Sqrt(1 / float64(n))
		}
		for j := 0; j < n; j++ {
			c.Set(k, j, a*math.Cos(math.Pi*float64(2*j+1)*float64(k)/float64(2*n)))
		}
	}
	cache[n] = c
	return c
}

// Forward computes the orthonormal 2-D DCT of x.
func Forward(x *mat.Dense) *mat.Dense {
	h, w := x.Dims()
	ch := matrixFor(h)
	cw := matrixFor(w)

	tmp := mat.NewDense(h, w, nil)
	tmp.Mul(ch, x)
	out := mat.NewDense(h, w, nil)
	out.Mul(tmp, cw.T())
	return out
}

// Inverse computes the orthonormal 2-D inverse DCT of y.
func Inverse(y *mat.Dense) *mat.Dense {
	h, w := y.Dims()
	ch := matrixFor(h)
	cw := matrixFor(w)

	tmp := mat.NewDense(h, w, nil)
	tmp.Mul(ch.T(), y)
	out := mat.NewDense(h, w, nil)
	out.Mul(tmp, cw)
	return out
}
