package signature

// gridTransform remaps a square grid of gray means into another orientation.
type gridTransform func([][]float64) [][]float64

// orientations are the eight dihedral transforms of the sampling grid,
// equivalent to signing the image under every 90-degree rotation with and
// without mirroring. The identity comes first.
var orientations = []gridTransform{
	identity,
	rotate90,
	rotate180,
	rotate270,
	flipHorizontal,
	flipVertical,
	transpose,
	antiTranspose,
}

func identity(g [][]float64) [][]float64 { return g }

func rotate90(g [][]float64) [][]float64 {
	return remap(g, func(n, i, j int) (int, int) { return n - 1 - j, i })
}

func rotate180(g [][]float64) [][]float64 {
	return remap(g, func(n, i, j int) (int, int) { return n - 1 - i, n - 1 - j })
}

func rotate270(g [][]float64) [][]float64 {
	return remap(g, func(n, i, j int) (int, int) { return j, n - 1 - i })
}

func flipHorizontal(g [][]float64) [][]float64 {
	return remap(g, func(n, i, j int) (int, int) { return i, n - 1 - j })
}

func flipVertical(g [][]float64) [][]float64 {
	return remap(g, func(n, i, j int) (int, int) { return n - 1 - i, j })
}

func transpose(g [][]float64) [][]float64 {
	return remap(g, func(n, i, j int) (int, int) { return j, i })
}

func antiTranspose(g [][]float64) [][]float64 {
	return remap(g, func(n, i, j int) (int, int) { return n - 1 - j, n - 1 - i })
}

// remap builds the grid whose (i, j) cell is taken from source(i, j).
func remap(g [][]float64, source func(n, i, j int) (int, int)) [][]float64 {
	n := len(g)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			si, sj := source(n, i, j)
			out[i][j] = g[si][sj]
		}
	}
	return out
}
