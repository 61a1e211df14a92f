package hermestools

// Filter returns the elements of input that keep accepts, in order.
func Filter[T any](input []T, keep func(T) bool) []T {
	result := make([]T, 0, len(input))
	for _, item := range input {
		if keep(item) {
			result = append(result, item)
		}
	}

	return result
}
