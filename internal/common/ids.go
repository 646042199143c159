package common

// Discord snowflake of a guild member. Presence and shifts are keyed by it
type UserId string

func (id UserId) Mention() string {
	return "<@" + string(id) + ">"
}

// Roblox user id, as handed out by the game server and Bloxlink
type RobloxId int64
