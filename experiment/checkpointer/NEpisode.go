package checkpointer

import (
	"fmt"

	"github.com/samuelfneumann/goa3c/agent/a3c"
)

// nEpisode implements checkpointing every N episodes
type nEpisode struct {
	interval int

	// object returns the object to save. The global network changes
	// while workers run, so a consistent copy is taken at each
	// checkpoint.
	object func() (Serializable, error)

	// filename returns the string filename of the file to save the object
	// in.
	//
	// If each serialized object should be saved in a separate file with
	// each file having an incremented number as a suffix (e.g.
	// file1.bin, file2.bin, ..., fileK.bin), then simply use the
	// static function FilenameEnumerator, which will return a function
	// that will enumerate filenames.
	//
	// Otherwise, if each serialized object should be saved in a
	// separate file, but the filename does not matter, use the
	// static function FileTimer to generate the required naming
	// function. For example:
	//
	// n, err := NewNEpisode(10, object, FileTimer(dir, "global", ".bin"))
	filename func() string
}

// NewNEpisode returns a checkpointer that checkpoints every n episodes.
func NewNEpisode(n int, object func() (Serializable, error),
	filename func() string) (Checkpointer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newNEpisode: interval must be positive, "+
			"got %d", n)
	}
	return &nEpisode{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the checkpointer's object if the episode number is
// a multiple of the interval
func (n *nEpisode) Checkpoint(e a3c.Episode) error {
	if e.Number%n.interval != 0 {
		return nil
	}

	object, err := n.object()
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := Save(n.filename(), object); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
