package app

import (
	"context"
	"fmt"

	"github.com/rgould/whisprbar/internal/audio"
)

// commandDevices lists Pulse input sources with selection-relevant metadata.
func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		kind := "input"
		if device.Monitor {
			kind = "monitor"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | kind=%s | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			kind,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}
