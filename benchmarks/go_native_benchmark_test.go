package benchmarks

import "testing"

var nativeInt int64
var nativeBool bool

// Go native benchmarks for comparison
func BenchmarkGoAddition(b *testing.B) {
	x := int64(5)
	for i := 0; i < b.N; i++ {
		nativeInt = x + x + x + x + x + x + x + x + x + x + x + x + x + x + x + x + x + x + x + x + x + x + x + x + x
	}
}

func BenchmarkGoComparison(b *testing.B) {
	x, y := int64(1), int64(2)
	for i := 0; i < b.N; i++ {
		nativeBool = x < y
	}
}
