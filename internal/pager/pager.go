// Package pager shows long text (manifests, help) in the ov terminal pager.
package pager

import (
	"fmt"
	"io"

	"github.com/noborus/ov/oviewer"
)

// Page runs ov over r until the user quits it. It takes over the terminal,
// so callers inside a Bubble Tea program must release the terminal first.
func Page(r io.Reader) error {
	root, err := oviewer.NewRoot(r)
	if err != nil {
		return fmt.Errorf("failed to open pager: %w", err)
	}

	// keep ov from printing the document again after it exits
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	if err := root.Run(); err != nil {
		return fmt.Errorf("pager failed: %w", err)
	}
	return nil
}
