package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// payloadEntry is one element of the input array. The config variant's
// callers historically used config_commands; both keys are accepted, with
// commands taking precedence when both are present.
type payloadEntry struct {
	DeviceName     string   `json:"device_name"`
	Commands       []string `json:"commands"`
	ConfigCommands []string `json:"config_commands"`
}

// ParsePayload normalizes a JSON payload into ordered command batches. The
// payload must be an array of {device_name, commands} objects; anything
// else yields an *InputError. An empty array is valid and produces zero
// batches.
func ParsePayload(data []byte) ([]CommandBatch, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &InputError{Reason: "empty payload"}
	}

	var entries []payloadEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &InputError{Reason: "payload must be a JSON array of {device_name, commands} objects", Err: err}
	}

	batches := make([]CommandBatch, 0, len(entries))
	for i, e := range entries {
		if e.DeviceName == "" {
			return nil, &InputError{Reason: fmt.Sprintf("entry %d has no device_name", i)}
		}
		commands := e.Commands
		if commands == nil {
			commands = e.ConfigCommands
		}
		batches = append(batches, CommandBatch{DeviceName: e.DeviceName, Commands: commands})
	}
	return batches, nil
}
