package common

// BinarySearch searches the ordered range [0, n). f(i) compares the element at
// index i with the target and returns a negative number when the element is
// smaller, zero when it matches and a positive number when it is larger.
//
// If some index matches, BinarySearch returns it and true; with duplicates any
// matching index may be returned. Otherwise it returns the index at which the
// target would be inserted to keep the range ordered, and false.
func BinarySearch(n int, f func(i int) int) (int, bool) {
	left, right := 0, n
	size := n
	for left < right {
		mid := left + size/2
		cmp := f(mid)
		if cmp < 0 {
			left = mid + 1
		} else if cmp > 0 {
			right = mid
		} else {
			return mid, true
		}
		size = right - left
	}
	return left, false
}
