package predictor

import (
	"context"
	"fmt"
	"io"
	"time"
)

// CheckReady probes GET / and writes a one-line report to w. A non-nil error
// means the service is unreachable or not online; the form stays usable
// either way, so callers report it and carry on.
func CheckReady(ctx context.Context, c *Client, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	h, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "prediction service %s: unreachable (%v)\n", c.BaseURL(), err)
		return fmt.Errorf("prediction service not reachable at %s: %w", c.BaseURL(), err)
	}
	if h.Status != "online" {
		fmt.Fprintf(w, "prediction service %s: status %q\n", c.BaseURL(), h.Status)
		return fmt.Errorf("prediction service reports status %q", h.Status)
	}

	fmt.Fprintf(w, "prediction service %s: online (%s)\n", c.BaseURL(), h.Project)
	return nil
}
