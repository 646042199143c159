package bloxlink

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"netbot/internal/common"
)

// Body of discord-to-roblox: { "robloxID": "146941966", "resolved": { ... } }
func UnmarshalRobloxId(data []byte) (common.RobloxId, error) {

	var raw struct {
		RobloxId json.RawMessage `json:"robloxID"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("could not decode bloxlink response: %w", err)
	}

	// Bloxlink sends the id as a string, accept a bare number too
	text := strings.Trim(strings.TrimSpace(string(raw.RobloxId)), `"`)
	if text == "" || text == "null" {
		return 0, ErrNotLinked
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("roblox id %q is not a number", text)
	}
	return common.RobloxId(id), nil
}

// Body of roblox-to-discord: { "discordIDs": ["123", ...], "resolved": { ... } }.
// The first linked account wins
func UnmarshalDiscordId(data []byte) (common.UserId, error) {

	var raw struct {
		DiscordIds []string `json:"discordIDs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("could not decode bloxlink response: %w", err)
	}
	for _, id := range raw.DiscordIds {
		if id = strings.TrimSpace(id); id != "" {
			return common.UserId(id), nil
		}
	}
	return "", ErrNotLinked
}
