// Package ipc lets one-shot commands wake an already-running status watcher.
package ipc

// Commands understood by the watcher's socket.
const (
	CommandRecheck = "recheck"
	CommandStatus  = "status"
)

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK    bool   `json:"ok"`
	State string `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}
