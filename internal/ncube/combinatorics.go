package ncube

// Factorial returns n! for small n. Unoptimized; n stays well below 20 here.
func Factorial(n int) int {
	f := 1
	for i := 2; i <= n; i++ {
		f *= i
	}
	return f
}

// Choose returns the binomial coefficient C(n, k), or 0 when k is out of range.
func Choose(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := 1
	for i := 1; i <= k; i++ {
		c = c * (n - k + i) / i
	}
	return c
}

// FaceCount is the number of m-dimensional faces of an n-cube: 2^(n-m)·C(n,m).
// m=0 counts vertices, m=1 edges, m=2 square faces (two triangles each).
func FaceCount(n, m int) int {
	if m < 0 || m > n {
		return 0
	}
	return (1 << uint(n-m)) * Choose(n, m)
}

// PlanePairs lists every axis pair (i, j) with 0 <= i < j < n in lexicographic order.
// The order is the canonical plane order used across the repository.
func PlanePairs(n int) [][2]int {
	out := make([][2]int, 0, Choose(n, 2))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, [2]int{i, j})
		}
	}
	return out
}
