// Package waybar renders resolved status into waybar custom-module JSON.
package waybar

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rgould/whisprbar/internal/resolver"
)

// Message is the wire format: one JSON object per line on stdout.
type Message struct {
	Text    string `json:"text"`
	Class   string `json:"class"`
	Tooltip string `json:"tooltip"`
}

const (
	textRecording = "\U000F056C REC"
	textReady     = "\U000F036C RDY"
	textError     = "\U000F036D ERR"
)

// FromStatus maps a resolved status to its waybar rendering.
func FromStatus(status resolver.Status) Message {
	switch status.State {
	case resolver.StateRecording:
		return Message{
			Text:    textRecording,
			Class:   string(resolver.StateRecording),
			Tooltip: "Dictation: recording\nClick to stop.",
		}
	case resolver.StateReady:
		return Message{
			Text:    textReady,
			Class:   string(resolver.StateReady),
			Tooltip: "Dictation: ready\nClick to start recording.\n" + micLine(status),
		}
	default:
		return errorMessage(status)
	}
}

// errorMessage renders the error state with its reason code and remediation hint.
func errorMessage(status resolver.Status) Message {
	reason := status.Reason
	if reason == "" {
		reason = resolver.ReasonUnknown
	}

	lines := []string{"Dictation error: " + reason}
	if status.Detail != "" {
		lines = append(lines, status.Detail)
	}
	if hint := remediationHint(reason); hint != "" {
		lines = append(lines, hint)
	}
	lines = append(lines, micLine(status))

	return Message{
		Text:    textError,
		Class:   "error " + reason,
		Tooltip: strings.Join(lines, "\n"),
	}
}

// remediationHint maps reason codes to a short next step for the tooltip.
func remediationHint(reason string) string {
	switch {
	case reason == resolver.ReasonServiceInactive:
		return "Start it: systemctl --user start whisprd.service"
	case resolver.IsServiceFailure(reason):
		return "Inspect: journalctl --user -u whisprd.service"
	case reason == resolver.ReasonHelperDown:
		return "Check ydotoold.service and its control socket."
	case reason == resolver.ReasonAudioDown:
		return "Check PipeWire and connected microphones."
	case reason == resolver.ReasonModelMissing:
		return "Download the speech model or fix model.path."
	}
	return ""
}

// micLine summarizes dependency health the consumer most often asks about.
func micLine(status resolver.Status) string {
	if status.MicPresent {
		return "Microphone: present"
	}
	return "Microphone: not detected"
}

// Encode writes the message as exactly one newline-terminated JSON object.
// json.Encoder appends the newline itself, so a downstream line reader sees
// each transition immediately.
func (m Message) Encode(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("encode status message: %w", err)
	}
	return nil
}
