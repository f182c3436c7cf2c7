//go:build !nogym

package envconfig

import (
	env "github.com/samuelfneumann/goa3c/environment"
	"github.com/samuelfneumann/goa3c/environment/gym"
)

func newGym(c GymConfig, seed uint64) (env.Environment, error) {
	return gym.New(c.Name, c.Discount, seed)
}
