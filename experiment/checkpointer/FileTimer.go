package checkpointer

import (
	"fmt"
	"path/filepath"
	"time"
)

// FileTimer returns a function which returns filenames in dir suffixed
// with the number of nanoseconds since January 1, 1970.
func FileTimer(dir, filename, extension string) func() string {
	return func() string {
		return filepath.Join(dir, fmt.Sprintf("%v-%v%v", filename,
			time.Now().UnixNano(), extension))
	}
}
