//go:build nogym

package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/goa3c/environment"
)

// newGym fails in builds without Python, see the gym package
func newGym(c GymConfig, _ uint64) (env.Environment, error) {
	return nil, fmt.Errorf("create: gym environment %v: built without gym "+
		"support", c.Name)
}
