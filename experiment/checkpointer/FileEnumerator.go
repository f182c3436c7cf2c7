package checkpointer

import (
	"fmt"
	"path/filepath"
)

// FilenameEnumerator returns a function which returns filenames in dir
// with a counter suffix, e.g. dir/global-3.bin. Each time the returned
// function is called the counter is one higher than on the previous
// call, starting at start+1.
func FilenameEnumerator(start int, dir, filename,
	extension string) func() string {
	i := start
	return func() string {
		i++
		return filepath.Join(dir, fmt.Sprintf("%v-%d%v", filename, i,
			extension))
	}
}
