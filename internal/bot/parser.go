package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"netbot/internal/common"
	"netbot/internal/moderation"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	COMMAND_PING        = iota
	COMMAND_HELP        = iota
	COMMAND_STARTCLOCK  = iota
	COMMAND_ENDCLOCK    = iota
	COMMAND_CLOCKRESET  = iota
	COMMAND_CLOCKSTATUS = iota
	COMMAND_INGAME      = iota
	COMMAND_SHIFT       = iota
	COMMAND_CANCELSHIFT = iota
	COMMAND_SHIFTSTOP   = iota
	COMMAND_LOAREQUEST  = iota
	COMMAND_LOALIST     = iota
	COMMAND_LOADECIDE   = iota
	COMMAND_NETCONFIG   = iota
	COMMAND_GPCHECK     = iota
	COMMAND_MODERATE    = iota
	COMMAND_EDITMOD     = iota
	COMMAND_LOOKUP      = iota
	COMMAND_MODSTATS    = iota
)

const (
	PARSEID_OK                     = iota
	PARSEID_COMMAND_NOT_RECOGNISED = iota
	PARSEID_MISSING_OPTION         = iota
	PARSEID_WRONG_OPTION           = iota
)

var errorMessages map[int]string = map[int]string{
	PARSEID_COMMAND_NOT_RECOGNISED: "Command `%s` not recognised",
	PARSEID_MISSING_OPTION:         "Command `%s` requires the option `%s`",
	PARSEID_WRONG_OPTION:           "Option `%s` is not valid: %s",
}

var commandIds map[string]int = map[string]int{
	"ping":           COMMAND_PING,
	"help":           COMMAND_HELP,
	"startclock":     COMMAND_STARTCLOCK,
	"endclock":       COMMAND_ENDCLOCK,
	"clockreset":     COMMAND_CLOCKRESET,
	"clockstatus":    COMMAND_CLOCKSTATUS,
	"ingame":         COMMAND_INGAME,
	"shift":          COMMAND_SHIFT,
	"cancelshift":    COMMAND_CANCELSHIFT,
	"shiftstop":      COMMAND_SHIFTSTOP,
	"loarequest":     COMMAND_LOAREQUEST,
	"loalist":        COMMAND_LOALIST,
	"loadecide":      COMMAND_LOADECIDE,
	"netconfig":      COMMAND_NETCONFIG,
	"gpcheck":        COMMAND_GPCHECK,
	"moderate":       COMMAND_MODERATE,
	"editmoderation": COMMAND_EDITMOD,
	"lookup":         COMMAND_LOOKUP,
	"modstats":       COMMAND_MODSTATS,
}

type ParseResult struct {
	command      int
	parseid      int
	errorMessage string
	arguments    interface{}
}

type UserArguments struct {
	UserId common.UserId
}

type ShiftArguments struct {
	Game   string
	Time   string
	Routes string
	Buses  string
	Notes  string
}

type MessageArguments struct {
	MessageId string
	Notes     string
}

type LoaRequestArguments struct {
	Days   int
	Reason string
}

type LoaDecisionArguments struct {
	Id      int64
	Approve bool
}

type ConfigArguments struct {
	BotlogChannelId string
	LoaChannelId    string
	// Empty keeps the current modlog channel
	ModlogChannelId string
}

type ModerateArguments struct {
	RobloxUser string
	Punishment string
	Reason     string
}

type EditModerationArguments struct {
	CaseId     int64
	Punishment string
	Reason     string
}

type LookupArguments struct {
	RobloxUser string
}

// Turn the data of a slash command into a command and its arguments
func Parse(data discordgo.ApplicationCommandInteractionData) ParseResult {

	command, found := commandIds[data.Name]
	if !found {
		parseid := PARSEID_COMMAND_NOT_RECOGNISED
		return ParseResult{parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], data.Name)}
	}
	options := optionMap(data.Options)

	missing := func(option string) ParseResult {
		parseid := PARSEID_MISSING_OPTION
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], data.Name, option)}
	}
	wrong := func(option string, reason string) ParseResult {
		parseid := PARSEID_WRONG_OPTION
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], option, reason)}
	}
	parsed := func(arguments interface{}) ParseResult {
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: arguments}
	}

	switch command {
	case COMMAND_CLOCKRESET, COMMAND_GPCHECK:
		// /clockreset <user>, /gpcheck <user>
		user, found := stringOption(options, "user")
		if !found {
			return missing("user")
		}
		return parsed(UserArguments{common.UserId(user)})
	case COMMAND_SHIFT:
		// /shift <game> <time> <routes> <buses_on_duty> [notes]
		var arguments ShiftArguments
		for name, field := range map[string]*string{"game": &arguments.Game, "time": &arguments.Time, "routes": &arguments.Routes, "buses_on_duty": &arguments.Buses} {
			value, found := stringOption(options, name)
			if !found {
				return missing(name)
			}
			*field = value
		}
		arguments.Notes, _ = stringOption(options, "notes")
		return parsed(arguments)
	case COMMAND_CANCELSHIFT, COMMAND_SHIFTSTOP:
		// /cancelshift <message> [notes], /shiftstop <message>
		value, found := stringOption(options, "message")
		if !found {
			return missing("message")
		}
		messageId, err := ParseMessageId(value)
		if err != nil {
			return wrong("message", err.Error())
		}
		notes, _ := stringOption(options, "notes")
		return parsed(MessageArguments{MessageId: messageId, Notes: notes})
	case COMMAND_LOAREQUEST:
		// /loarequest <days> <reason>
		days, found := intOption(options, "days")
		if !found {
			return missing("days")
		}
		if days <= 0 {
			return wrong("days", "days must be at least 1")
		}
		reason, found := stringOption(options, "reason")
		if !found {
			return missing("reason")
		}
		return parsed(LoaRequestArguments{Days: int(days), Reason: reason})
	case COMMAND_LOADECIDE:
		// /loadecide <id> <decision>
		id, found := intOption(options, "id")
		if !found {
			return missing("id")
		}
		decision, found := stringOption(options, "decision")
		if !found {
			return missing("decision")
		}
		switch strings.ToLower(decision) {
		case "approve", "approved":
			return parsed(LoaDecisionArguments{Id: id, Approve: true})
		case "deny", "denied":
			return parsed(LoaDecisionArguments{Id: id, Approve: false})
		default:
			return wrong("decision", "use approve or deny")
		}
	case COMMAND_NETCONFIG:
		// /netconfig <botlog_channel> <loa_channel> [modlog_channel]
		botlog, found := stringOption(options, "botlog_channel")
		if !found {
			return missing("botlog_channel")
		}
		loa, found := stringOption(options, "loa_channel")
		if !found {
			return missing("loa_channel")
		}
		modlog, _ := stringOption(options, "modlog_channel")
		return parsed(ConfigArguments{BotlogChannelId: botlog, LoaChannelId: loa, ModlogChannelId: modlog})
	case COMMAND_MODERATE:
		// /moderate <roblox_user> <punishment> <reason>
		user, found := stringOption(options, "roblox_user")
		if !found {
			return missing("roblox_user")
		}
		value, found := stringOption(options, "punishment")
		if !found {
			return missing("punishment")
		}
		punishment, ok := moderation.Punishment(value)
		if !ok {
			return wrong("punishment", "use one of "+strings.Join(moderation.PUNISHMENTS, ", "))
		}
		reason, found := stringOption(options, "reason")
		if !found {
			return missing("reason")
		}
		return parsed(ModerateArguments{RobloxUser: user, Punishment: punishment, Reason: reason})
	case COMMAND_EDITMOD:
		// /editmoderation <case_id> <punishment> <reason>
		caseId, found := intOption(options, "case_id")
		if !found {
			return missing("case_id")
		}
		if caseId <= 0 {
			return wrong("case_id", "case ids start at 1")
		}
		value, found := stringOption(options, "punishment")
		if !found {
			return missing("punishment")
		}
		punishment, ok := moderation.Punishment(value)
		if !ok {
			return wrong("punishment", "use one of "+strings.Join(moderation.PUNISHMENTS, ", "))
		}
		reason, found := stringOption(options, "reason")
		if !found {
			return missing("reason")
		}
		return parsed(EditModerationArguments{CaseId: caseId, Punishment: punishment, Reason: reason})
	case COMMAND_LOOKUP:
		// /lookup <roblox_user>
		user, found := stringOption(options, "roblox_user")
		if !found {
			return missing("roblox_user")
		}
		return parsed(LookupArguments{RobloxUser: user})
	case COMMAND_MODSTATS:
		// /modstats [member], defaults to the caller
		member, _ := stringOption(options, "member")
		return parsed(UserArguments{common.UserId(member)})
	default:
		// Commands without options
		return parsed(nil)
	}
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	result := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, option := range options {
		result[option.Name] = option
	}
	return result
}

// User, channel and string options all carry a string value
func stringOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	option, ok := options[name]
	if !ok {
		return "", false
	}
	value, ok := option.Value.(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func intOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (int64, bool) {
	option, ok := options[name]
	if !ok {
		return 0, false
	}
	switch value := option.Value.(type) {
	case float64:
		return int64(value), true
	case int64:
		return value, true
	case int:
		return int64(value), true
	case string:
		number, err := strconv.ParseInt(value, 10, 64)
		return number, err == nil
	default:
		log.Warn().Msg(fmt.Sprintf("Unexpected type %T for option %s", value, name))
		return 0, false
	}
}

// Accept a raw message id or a message link such as
// https://discord.com/channels/<guild>/<channel>/<message>
func ParseMessageId(text string) (string, error) {

	text = strings.TrimSpace(text)
	if strings.Contains(text, "/") {
		text = strings.TrimRight(text, "/")
		text = text[strings.LastIndex(text, "/")+1:]
	}
	if _, err := strconv.ParseUint(text, 10, 64); err != nil || text == "" {
		return "", fmt.Errorf("provide a message ID or a message link")
	}
	return text, nil
}

var clockLayouts = []string{"3:04 PM", "3:04PM", "15:04"}

var dateLayouts = []string{
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02 3:04 PM",
	"2006/01/02 3:04 PM",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"Mon 1/2/2006 15:04",
	"Mon 1/2/2006 3:04 PM",
	"1/2 15:04",
	"1/2 3:04 PM",
}

// Parse a friendly time in the provided location.
// Accepts "4:00 PM", "16:00", "today 4:00 PM", "tomorrow 16:00",
// "2025-09-23 16:00" or "9/23 4:00 PM". A bare time that already
// passed today means tomorrow
func ParseTime(text string, location *time.Location, now time.Time) (time.Time, error) {

	now = now.In(location)
	value := strings.ToUpper(strings.Join(strings.Fields(text), " "))

	atClock := func(clock string, day time.Time) (time.Time, bool) {
		for _, layout := range clockLayouts {
			if parsed, err := time.Parse(layout, clock); err == nil {
				return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, location), true
			}
		}
		return time.Time{}, false
	}

	for prefix, days := range map[string]int{"TODAY": 0, "TOMORROW": 1} {
		if value != prefix && !strings.HasPrefix(value, prefix+" ") {
			continue
		}
		clock := strings.TrimSpace(strings.TrimPrefix(value, prefix))
		if clock == "" {
			return time.Time{}, fmt.Errorf("please include a time, e.g. '%s 4:00 PM'", strings.ToLower(prefix))
		}
		if when, ok := atClock(clock, now.AddDate(0, 0, days)); ok {
			return when, nil
		}
		return time.Time{}, fmt.Errorf("could not parse time in '%s', try '%s 4:00 PM'", text, strings.ToLower(prefix))
	}

	if when, ok := atClock(value, now); ok {
		if !when.After(now) {
			when = when.AddDate(0, 0, 1)
		}
		return when, nil
	}

	for _, layout := range dateLayouts {
		parsed, err := time.ParseInLocation(layout, value, location)
		if err != nil {
			continue
		}
		if !strings.Contains(layout, "2006") {
			parsed = time.Date(now.Year(), parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), 0, 0, location)
		}
		return parsed, nil
	}

	return time.Time{}, fmt.Errorf("could not parse time '%s', try '4:00 PM', 'today 4:00 PM', 'tomorrow 16:00', or '9/23 4:00 PM'", text)
}
