package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule registers fn on c under spec, naming the job in any error.
func Schedule(c *cron.Cron, name, spec string, fn func()) error {
	if _, err := c.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}
