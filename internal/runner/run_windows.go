//go:build windows

package runner

import (
	"context"

	"github.com/loykin/spawnr/internal/config"
	"github.com/loykin/spawnr/internal/launch"
)

// Run is implemented by the Windows branch; this build always refuses.
func (r *Runner) Run(_ context.Context, _ config.LaunchSpec) (*Result, error) {
	return nil, launch.ErrUnsupported
}
