package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Gamepass struct {
	Id   int64
	Name string
}

type Config struct {
	DiscordToken              string
	GuildId                   string
	GameSecret                string
	WebPort                   int
	DatabasePath              string
	BloxlinkApiKey            string
	BloxlinkBaseUrl           string
	BloxlinkRequestsPerMinute int
	RobloxInventoryUrl        string
	RobloxUsersUrl            string
	RobloxThumbnailsUrl       string
	ShiftsChannelId           string
	RunsNotifiedRoleId        string
	NetEmoji                  string
	SupervisorRoleId          string
	LeadSupervisorRoleId      string
	Location                  *time.Location
	Gamepasses                []Gamepass
	// Zero disables the reminder DM for long shifts
	ShiftReminder time.Duration
}

// Load the env file if present and read the configuration from the environment
func LoadConfig(envFile string) (Config, error) {

	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("could not load env file %s: %w", envFile, err)
		}
		log.Debug().Msg(fmt.Sprintf("No env file at %s, using the environment only", envFile))
	}
	return ConfigFromLookup(os.LookupEnv)
}

func ConfigFromLookup(lookup func(string) (string, bool)) (Config, error) {

	get := func(key string, fallback string) string {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		return fallback
	}

	var config Config
	config.DiscordToken = get("DISCORD_TOKEN", "")
	if config.DiscordToken == "" {
		return Config{}, fmt.Errorf("DISCORD_TOKEN environment variable not set")
	}
	config.GuildId = get("GUILD_ID", "")
	config.GameSecret = get("ROBLOX_GAME_SECRET", "")
	config.DatabasePath = get("DATABASE_PATH", "bot_data.db")
	config.BloxlinkApiKey = get("BLOXLINK_API_KEY", "")
	config.BloxlinkBaseUrl = strings.TrimRight(get("BLOXLINK_BASE_URL", "https://api.blox.link/v4/public"), "/")
	config.RobloxInventoryUrl = strings.TrimRight(get("ROBLOX_INVENTORY_URL", "https://inventory.roblox.com/v1"), "/")
	config.RobloxUsersUrl = strings.TrimRight(get("ROBLOX_USERS_URL", "https://users.roblox.com/v1"), "/")
	config.RobloxThumbnailsUrl = strings.TrimRight(get("ROBLOX_THUMBNAILS_URL", "https://thumbnails.roblox.com/v1"), "/")
	config.ShiftsChannelId = get("SHIFTS_CHANNEL_ID", "")
	config.RunsNotifiedRoleId = get("RUNS_NOTIFIED_ROLE_ID", "")
	config.NetEmoji = get("NET_EMOJI", "🚌")
	config.SupervisorRoleId = get("SUPERVISOR_ROLE_ID", "")
	config.LeadSupervisorRoleId = get("LEAD_SUPERVISOR_ROLE_ID", "")

	port, err := strconv.Atoi(get("WEB_PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("WEB_PORT is not a valid port: %s", get("WEB_PORT", ""))
	}
	config.WebPort = port

	perMinute, err := strconv.Atoi(get("BLOXLINK_REQUESTS_PER_MINUTE", "60"))
	if err != nil || perMinute <= 0 {
		return Config{}, fmt.Errorf("BLOXLINK_REQUESTS_PER_MINUTE is not a positive number: %s", get("BLOXLINK_REQUESTS_PER_MINUTE", ""))
	}
	config.BloxlinkRequestsPerMinute = perMinute

	location, err := time.LoadLocation(get("DEFAULT_TZ", "America/New_York"))
	if err != nil {
		return Config{}, fmt.Errorf("could not load time zone: %w", err)
	}
	config.Location = location

	config.Gamepasses, err = ParseGamepasses(get("GAMEPASSES", ""))
	if err != nil {
		return Config{}, err
	}

	config.ShiftReminder, err = time.ParseDuration(get("SHIFT_REMINDER", "0s"))
	if err != nil || config.ShiftReminder < 0 {
		return Config{}, fmt.Errorf("SHIFT_REMINDER is not a valid duration: %s", get("SHIFT_REMINDER", ""))
	}

	return config, nil
}

// Parse a list of gamepasses in the form "id:name,id:name"
func ParseGamepasses(value string) ([]Gamepass, error) {

	gamepasses := []Gamepass{}
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		idString, name, found := strings.Cut(item, ":")
		if !found || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("gamepass %q is not in the form id:name", item)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idString), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("gamepass id %q is not a number", idString)
		}
		gamepasses = append(gamepasses, Gamepass{Id: id, Name: strings.TrimSpace(name)})
	}
	return gamepasses, nil
}
