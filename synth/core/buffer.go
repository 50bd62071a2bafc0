package core

// EnsureLen16 returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen16(buf []int16, n int) []int16 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]int16, n)
}

// EnsureLen32 returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen32(buf []int32, n int) []int32 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]int32, n)
}

// Zero16 sets all values in buf to 0.
func Zero16(buf []int16) {
	for i := range buf {
		buf[i] = 0
	}
}

// Zero32 sets all values in buf to 0.
func Zero32(buf []int32) {
	for i := range buf {
		buf[i] = 0
	}
}
