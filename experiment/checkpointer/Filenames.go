package checkpointer

import "fmt"

// Fixed returns a function which always returns filename
func Fixed(filename string) func() string {
	return func() string { return filename }
}

// Enumerated returns a function which returns filenames with a counter
// suffix. Each call returns a filename whose counter is one higher
// than on the previous call, the first call returning start+1.
func Enumerated(start int, filename, extension string) func() string {
	i := start
	return func() string {
		i++
		return fmt.Sprintf("%v%v%v", filename, i, extension)
	}
}
