package bot

import (
	"fmt"
	"strings"
	"time"

	"netbot/internal/common"
	"netbot/internal/moderation"
	"netbot/internal/roblox"
	"netbot/internal/shift"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const (
	colorBlurple  int = 0x5865F2
	colorGreen    int = 0x57F287
	colorRed      int = 0xED4245
	colorDarkGray int = 0x607D8B
	colorOrange   int = 0xE67E22
)

const FOOTER_TEXT = "More questions or concerns? Please open a ticket inside the New England Transit Discord Server."

const (
	SHIFT_JOIN_URL      = "https://www.netransit.net/shift"
	SHIFT_HELP_BUTTON   = "shift_help_btn"
	MODERATION_CONFIRM  = "mod_confirm"
	MODERATION_CANCEL   = "mod_cancel"
	MODERATION_TIME     = "01/02/2006 03:04 PM"
	HISTORY_LIMIT       = 15
	PREVIOUS_LIMIT      = 5
	MBTA_THUMBNAIL      = "https://i.imgur.com/uYNgKE3.png"
	MBTA_EMOJI          = "<:mbtalogo:1054907034505584747>"
	TIMESTAMP_SHORT     = "t"
	TIMESTAMP_RELATIVE  = "R"
	TIMESTAMP_LONG_DATE = "D"
)

var shiftImages = []string{
	"https://i.imgur.com/BMIzRKJ.jpeg",
	"https://i.imgur.com/h4KISNW.png",
	"https://i.imgur.com/scoVlB7.png",
	"https://i.imgur.com/rmcIwnq.png",
	"https://i.imgur.com/5cJuCUt.png",
	"https://i.imgur.com/aSJvclP.png",
	"https://i.imgur.com/kztq1gq.jpeg",
	"https://i.imgur.com/wxiIM8C.png",
	"https://i.imgur.com/LgthyeB.png",
	"https://i.imgur.com/XySPomR.png",
}

// Hours and minutes, seconds only below one minute
func FormatDuration(duration time.Duration) string {

	seconds := int64(duration / time.Second)
	hours := seconds / 3600
	minutes := seconds % 3600 / 60
	seconds = seconds % 60

	parts := []string{}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 && len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

// A discord timestamp tag, rendered in the reader's time zone
func Timestamp(t time.Time, style string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}

func channelMention(channelId string) string {
	return fmt.Sprintf("<#%s>", channelId)
}

func roleMention(roleId string) string {
	return fmt.Sprintf("<@&%s>", roleId)
}

func mentions(ids []common.UserId) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.Mention())
	}
	return strings.Join(parts, " ")
}

func InputNotValid(errorMessage string) []Response {
	return []Response{ResponseString{fmt.Sprintf("❌ Input not valid: %s", errorMessage)}}
}

func GuildOnly() []Response {
	return []Response{ResponseString{"This command can only be used in a server."}}
}

func NoPermission(command string, role string) []Response {
	return []Response{ResponseString{fmt.Sprintf("❌ You must be a %s or higher to use `/%s`.", role, command)}}
}

func Internal() []Response {
	return []Response{ResponseString{"⚠️ Something went wrong on my side, please try again later."}}
}

func Pong() []Response {
	return []Response{ResponseString{"🏓 Pong!"}}
}

func HelpMessage() []Response {

	embed := discordgo.MessageEmbed{Title: "Commands available", Color: colorBlurple}
	for _, command := range Commands() {
		name := "/" + command.Name
		for _, option := range command.Options {
			if option.Required {
				name += fmt.Sprintf(" <%s>", option.Name)
			} else {
				name += fmt.Sprintf(" [%s]", option.Name)
			}
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("`%s`", name),
			Value:  command.Description,
			Inline: false,
		})
	}
	return []Response{ResponseEmbed{embed}}
}

// Staff clock

func ShiftStarted(handle shift.Handle) []Response {
	return []Response{ResponseString{fmt.Sprintf("✅ Shift started for %s at %s.", handle.UserId.Mention(), Timestamp(handle.StartedAt, TIMESTAMP_SHORT))}}
}

func ShiftReminderScheduled(reminder time.Duration) []Response {
	return []Response{ResponseString{fmt.Sprintf("I will remind you by DM if your clock is still running after %s.", FormatDuration(reminder))}}
}

func ShiftAlreadyActive(handle shift.Handle) []Response {
	return []Response{ResponseString{fmt.Sprintf("❌ %s already has an active shift (started %s).", handle.UserId.Mention(), Timestamp(handle.StartedAt, TIMESTAMP_SHORT))}}
}

func NotInGame() []Response {
	return []Response{ResponseString{"❌ I don't see you in the Roblox game. Join the game first, then run `/startclock` again."}}
}

func ShiftEndedByUser(duration time.Duration) []Response {
	return []Response{ResponseString{fmt.Sprintf("✅ Your shift has been ended. Duration: **%s**.", FormatDuration(duration))}}
}

func NoActiveShift() []Response {
	return []Response{ResponseString{"You don't have an active shift."}}
}

func UserHasNoActiveShift() []Response {
	return []Response{ResponseString{"That user does not have an active shift."}}
}

func ShiftForceEnded(target common.UserId, duration time.Duration) []Response {
	return []Response{ResponseString{fmt.Sprintf("✅ Force-ended shift for %s (%s).", target.Mention(), FormatDuration(duration))}}
}

func ShiftReminder(elapsed time.Duration) string {
	return fmt.Sprintf("⏰ Your staff clock has been running for %s. Run `/endclock` when you are done.", FormatDuration(elapsed))
}

// Logged when a shift closes, whatever closed it
func ShiftEnded(record shift.Record) Response {
	embed := discordgo.MessageEmbed{
		Title: "Shift Ended",
		Description: fmt.Sprintf("**Staff:** %s\n**Started:** %s\n**Ended:** %s\n**Duration:** %s\n**Reason:** %s",
			record.UserId.Mention(),
			Timestamp(record.StartedAt, TIMESTAMP_SHORT),
			Timestamp(record.EndedAt, TIMESTAMP_SHORT),
			FormatDuration(record.Duration),
			record.Reason),
		Color:     colorBlurple,
		Timestamp: record.EndedAt.UTC().Format(time.RFC3339),
	}
	return ResponseEmbed{embed}
}

func ClockStatus(active []shift.Handle, now time.Time, own shift.Handle, ownActive bool, summary ShiftSummary) []Response {

	embed := discordgo.MessageEmbed{Title: "Staff clocks", Color: colorBlurple}

	var field discordgo.MessageEmbedField
	if len(active) == 0 {
		field = discordgo.MessageEmbedField{Name: "On the clock", Value: "Nobody is on the clock right now", Inline: false}
	} else {
		lines := []string{}
		for _, handle := range active {
			lines = append(lines, fmt.Sprintf("%s since %s (%s)", handle.UserId.Mention(), Timestamp(handle.StartedAt, TIMESTAMP_SHORT), FormatDuration(now.Sub(handle.StartedAt))))
		}
		field = discordgo.MessageEmbedField{Name: fmt.Sprintf("On the clock (%d)", len(active)), Value: strings.Join(lines, "\n"), Inline: false}
	}
	embed.Fields = append(embed.Fields, &field)

	yours := "Your clock is not running"
	if ownActive {
		yours = fmt.Sprintf("Running since %s", Timestamp(own.StartedAt, TIMESTAMP_RELATIVE))
	}
	yours += fmt.Sprintf("\nLogged: %d shifts, %s in total", summary.Count, FormatDuration(summary.Total))
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "You", Value: yours, Inline: false})

	return []Response{ResponseEmbed{embed}}
}

func InGame(ids []common.UserId) []Response {
	if len(ids) == 0 {
		return []Response{ResponseString{"Nobody is in the Roblox game right now."}}
	}
	return []Response{ResponseString{fmt.Sprintf("🎮 In game (%d): %s", len(ids), mentions(ids))}}
}

// Shift announcements

func TimeNotValid(err error) []Response {
	return []Response{ResponseString{fmt.Sprintf("❌ %s", err)}}
}

func ShiftsChannelMissing() []Response {
	return []Response{ResponseString{"❌ I couldn't find the shifts channel."}}
}

func ShiftPosted(channelId string) []Response {
	return []Response{ResponseString{fmt.Sprintf("✅ Shift posted to %s.", channelMention(channelId))}}
}

func ReactionFailed() []Response {
	return []Response{ResponseString{"⚠️ I couldn't add the :net: reaction. Check NET_EMOJI config."}}
}

func ShiftNotTracked() []Response {
	return []Response{ResponseString{"❌ I can't find a tracked shift with that message ID."}}
}

func ShiftAlreadyCanceled() []Response {
	return []Response{ResponseString{"❌ That shift was already canceled."}}
}

func ShiftCanceledConfirmation() []Response {
	return []Response{ResponseString{"✅ Shift canceled and attendees notified."}}
}

func ShiftOverConfirmation() []Response {
	return []Response{ResponseString{"✅ Posted “Shift Over.”"}}
}

// The announcement posted in the shifts channel, pinging the runs role
func ShiftAnnouncement(arguments ShiftArguments, when time.Time, host common.UserId, roleId string, emoji string) Response {

	embed := discordgo.MessageEmbed{Title: "!RUN!", Color: colorGreen}
	location := arguments.Game
	if arguments.Game == "MBTA" {
		location = fmt.Sprintf("%s %s", arguments.Game, MBTA_EMOJI)
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: MBTA_THUMBNAIL}
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Location", Value: location, Inline: true},
		{Name: "Time", Value: fmt.Sprintf("%s (%s)", Timestamp(when, TIMESTAMP_SHORT), Timestamp(when, TIMESTAMP_RELATIVE)), Inline: true},
		{Name: "Date", Value: Timestamp(when, TIMESTAMP_LONG_DATE), Inline: false},
		{Name: "Host", Value: host.Mention(), Inline: true},
		{Name: "Routes", Value: arguments.Routes, Inline: true},
		{Name: "Buses On Duty", Value: arguments.Buses, Inline: true},
	}
	if arguments.Notes != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Notes", Value: arguments.Notes, Inline: false})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "\u200b", Value: fmt.Sprintf("React %s if you plan on attending!", emoji), Inline: false})
	embed.Footer = &discordgo.MessageEmbedFooter{Text: FOOTER_TEXT + "\n\nYou must react with the emoji if you want to be notified."}

	message := discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{&embed}}
	if roleId != "" {
		message.Content = roleMention(roleId)
		message.AllowedMentions = &discordgo.MessageAllowedMentions{Roles: []string{roleId}}
	}
	return ResponseMessage{message}
}

// Posted under the announcement when the shift starts
func ShiftHappening(announcement shift.Announcement, image string) Response {

	attendees := mentions(announcement.Attendees)
	attendeeLine := "| |"
	if attendees != "" {
		attendeeLine = fmt.Sprintf("| %s |", attendees)
	}

	embed := discordgo.MessageEmbed{
		Color: colorBlurple,
		Description: fmt.Sprintf("Please use [THIS](%s) link to join.\n"+
			"Console use `/joinshift` in the game hub.\n"+
			"If you have any problems joining, ping the host.", SHIFT_JOIN_URL),
	}
	if announcement.HostId != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Host", Value: announcement.HostId.Mention(), Inline: true})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Attendees", Value: attendeeLine, Inline: false})
	if image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: image}
	}

	content := "# **Shift Happening**"
	if attendees != "" {
		content += "\n" + attendees
	}
	return ResponseMessage{discordgo.MessageSend{
		Content:         content,
		Embeds:          []*discordgo.MessageEmbed{&embed},
		Components:      shiftButtons(),
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}},
	}}
}

func shiftButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Direct Join", Style: discordgo.LinkButton, URL: SHIFT_JOIN_URL},
			discordgo.Button{Label: "How to /joinshift", Style: discordgo.PrimaryButton, CustomID: SHIFT_HELP_BUTTON},
		}},
	}
}

// Answer to the "How to /joinshift" button
func ShiftHelp() []Response {
	embed := discordgo.MessageEmbed{
		Description: "Go To Roblox, click **Play**, and before going to **Lower Mystic** type **`/joinshift`**.\n" +
			"It should teleport you directly to a server.",
		Color:  colorBlurple,
		Footer: &discordgo.MessageEmbedFooter{Text: "Any extra issues? Contact the host or make a ticket."},
	}
	return []Response{ResponseEmbed{embed}}
}

func formatWhen(when time.Time) string {
	return fmt.Sprintf("%s at %s", when.Format("Monday January 2, 2006"), when.Format("3:04 PM"))
}

func ShiftCanceled(announcement shift.Announcement, notes string, location *time.Location) Response {

	host := "the host"
	if announcement.HostId != "" {
		host = announcement.HostId.Mention()
	}
	when := formatWhen(announcement.When.In(location))
	embed := discordgo.MessageEmbed{
		Title:       "Shift Canceled",
		Description: fmt.Sprintf("Unfortunately, the shift that was supposed to happen **%s** was canceled by %s.", when, host),
		Color:       colorRed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Host", Value: host, Inline: true},
			{Name: "Scheduled Time", Value: when, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: FOOTER_TEXT},
	}
	if notes != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Notes", Value: notes, Inline: false})
	}
	return ResponseMessage{discordgo.MessageSend{
		Content:         strings.TrimSpace("# Shift Canceled\n" + mentions(announcement.Attendees)),
		Embeds:          []*discordgo.MessageEmbed{&embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}},
	}}
}

func ShiftOver() Response {
	embed := discordgo.MessageEmbed{
		Title:       "Shift Over",
		Description: "The shift has now concluded.\nPlease wait to participate in the next shift.",
		Color:       colorDarkGray,
		Footer:      &discordgo.MessageEmbedFooter{Text: FOOTER_TEXT},
	}
	return ResponseMessage{discordgo.MessageSend{
		Content:         "# Shift Over",
		Embeds:          []*discordgo.MessageEmbed{&embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}}
}

// Leaves of absence

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func LoaRequested(loa Loa, days int) []Response {
	return []Response{ResponseString{fmt.Sprintf("📅 LOA `#%d` requested for **%d days**.\nReason: `%s`\nFrom: `%s` To: `%s`\nStatus: `%s`.",
		loa.Id, days, loa.Reason, formatDate(loa.Start), formatDate(loa.End), loa.Status)}}
}

func LoaList(loas []Loa) []Response {
	if len(loas) == 0 {
		return []Response{ResponseString{"No LOAs recorded in this server."}}
	}
	lines := make([]string, 0, len(loas))
	for _, loa := range loas {
		lines = append(lines, fmt.Sprintf("`#%d` • %s | %s → %s | `%s` | Reason: %s",
			loa.Id, loa.UserId.Mention(), formatDate(loa.Start), formatDate(loa.End), loa.Status, loa.Reason))
	}
	return []Response{ResponseMessage{discordgo.MessageSend{
		Content:         strings.Join(lines, "\n"),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}}}
}

func LoaNotFound(id int64) []Response {
	return []Response{ResponseString{fmt.Sprintf("❌ There is no LOA `#%d` in this server.", id)}}
}

func LoaAlreadyDecided(loa Loa) []Response {
	return []Response{ResponseString{fmt.Sprintf("❌ LOA `#%d` was already %s.", loa.Id, loa.Status)}}
}

func LoaDecided(loa Loa) []Response {
	return []Response{ResponseString{fmt.Sprintf("✅ LOA `#%d` of %s is now `%s`.", loa.Id, loa.UserId.Mention(), loa.Status)}}
}

// Posted in the LOA feed channel
func LoaFeed(loa Loa) Response {
	color := colorGreen
	if loa.Status == LOA_DENIED {
		color = colorRed
	}
	embed := discordgo.MessageEmbed{
		Title: fmt.Sprintf("LOA #%d %s", loa.Id, loa.Status),
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Staff", Value: loa.UserId.Mention(), Inline: true},
			{Name: "Decided by", Value: loa.DecidedBy.Mention(), Inline: true},
			{Name: "Dates", Value: fmt.Sprintf("%s → %s", formatDate(loa.Start), formatDate(loa.End)), Inline: false},
			{Name: "Reason", Value: loa.Reason, Inline: false},
		},
	}
	return ResponseEmbed{embed}
}

func LoaDecisionMessage(loa Loa) string {
	return fmt.Sprintf("📅 Your LOA `#%d` (%s → %s) was %s.", loa.Id, formatDate(loa.Start), formatDate(loa.End), loa.Status)
}

// Configuration

func ConfigUpdated(settings GuildSettings) []Response {
	embed := discordgo.MessageEmbed{
		Title: "NET Configuration Updated",
		Color: colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Bot Log Channel", Value: channelMention(settings.BotlogChannelId), Inline: false},
			{Name: "LOA Feed Channel", Value: channelMention(settings.LoaChannelId), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Only Lead Supervisor+ can run /netconfig."},
	}
	if settings.ModlogChannelId != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Mod Log Channel", Value: channelMention(settings.ModlogChannelId), Inline: false})
	}
	return []Response{ResponseEmbed{embed}}
}

// Gamepasses

func NotLinked(user common.UserId) []Response {
	return []Response{ResponseString{fmt.Sprintf("❌ Could not find a linked Roblox account for %s via Bloxlink. Ask them to verify with Bloxlink first.", user.Mention())}}
}

func BloxlinkUnavailable() []Response {
	return []Response{ResponseString{"⚠️ Bloxlink did not answer, please try again later."}}
}

func GamepassCheck(user common.UserId, robloxId common.RobloxId, ownerships []roblox.Ownership) []Response {

	lines := []string{}
	for _, ownership := range ownerships {
		emoji, status := "✅", "Owned"
		if ownership.Err != nil {
			emoji, status = "⚠️", "Unknown (API error)"
		} else if !ownership.Owned {
			emoji, status = "❌", "Not owned"
		}
		lines = append(lines, fmt.Sprintf("%s **%s** (`%d`): %s", emoji, ownership.Gamepass.Name, ownership.Gamepass.Id, status))
	}
	if len(lines) == 0 {
		lines = append(lines, "_No gamepasses configured in the bot yet._")
	}

	embed := discordgo.MessageEmbed{
		Title: "Gamepass Check",
		Description: fmt.Sprintf("Checking configured gamepasses for %s.\n**Roblox user ID:** `%d`\n\n**Boston Bus Simulator gamepasses:**\n%s",
			user.Mention(), robloxId, strings.Join(lines, "\n")),
		Color: colorBlurple,
	}
	return []Response{ResponseEmbed{embed}}
}

// Moderation

func plural(count int64, unit string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, unit)
	}
	return fmt.Sprintf("%d %ss", count, unit)
}

// "1 hour, 5 minutes". Seconds show when there is nothing else
func FormatLongDuration(duration time.Duration) string {

	seconds := int64(duration / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := seconds % 3600 / 60
	seconds = seconds % 60

	parts := []string{}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}
	return strings.Join(parts, ", ")
}

func formatModerationTime(t time.Time, location *time.Location) string {
	return t.In(location).Format(MODERATION_TIME)
}

func moderationButtons(draft moderation.Draft) []discordgo.MessageComponent {
	confirm := "Confirm"
	if draft.Kind == moderation.KindEdit {
		confirm = "Confirm Edit"
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: confirm, Style: discordgo.SuccessButton, CustomID: MODERATION_CONFIRM + ":" + draft.Id.String()},
			discordgo.Button{Label: "Cancel", Style: discordgo.DangerButton, CustomID: MODERATION_CANCEL + ":" + draft.Id.String()},
		}},
	}
}

// Split a moderation button id into its action and draft id
func parseModerationButton(customId string) (string, uuid.UUID, bool) {
	action, value, found := strings.Cut(customId, ":")
	if !found || (action != MODERATION_CONFIRM && action != MODERATION_CANCEL) {
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return "", uuid.Nil, false
	}
	return action, id, true
}

// The card shown by /moderate, waiting for confirmation
func ModerationPending(draft moderation.Draft, profile roblox.Profile, previous []Moderation, location *time.Location) []Response {

	created := "Unknown"
	if !profile.Created.IsZero() {
		created = profile.Created.In(location).Format("01/02/2006")
	}
	lines := make([]string, 0, len(previous))
	for i, record := range previous {
		lines = append(lines, fmt.Sprintf("%d. %s • %s • %s", i+1, formatModerationTime(record.CreatedAt, location), record.Punishment, record.Reason))
	}
	history := "None"
	if len(lines) > 0 {
		history = strings.Join(lines, "\n")
	}

	embed := discordgo.MessageEmbed{
		Title:       profile.Display(),
		URL:         profile.ProfileUrl,
		Description: "Pending Moderation",
		Color:       colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: fmt.Sprintf("%d", profile.Id), Inline: true},
			{Name: "Display Name", Value: profile.Display(), Inline: true},
			{Name: "Account Created", Value: created, Inline: true},
			{Name: "Reason", Value: draft.Reason, Inline: false},
			{Name: "Punishment", Value: draft.Punishment, Inline: false},
			{Name: "Previous Moderations", Value: history, Inline: false},
		},
	}
	if profile.ThumbnailUrl != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: profile.ThumbnailUrl}
	}
	return []Response{ResponseMessage{discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{&embed},
		Components: moderationButtons(draft),
	}}}
}

func ModerationEditPending(draft moderation.Draft, current Moderation) []Response {
	embed := discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Pending Edit – Case #%d", current.Id),
		Description: fmt.Sprintf("Target: **%s** (%d)", current.Username, current.RobloxId),
		Color:       colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Current Punishment", Value: current.Punishment, Inline: true},
			{Name: "New Punishment", Value: draft.Punishment, Inline: true},
			{Name: "Current Reason", Value: current.Reason, Inline: false},
			{Name: "New Reason", Value: draft.Reason, Inline: false},
		},
	}
	return []Response{ResponseMessage{discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{&embed},
		Components: moderationButtons(draft),
	}}}
}

// The card after a click: a status line and no buttons
func ResolvedCard(message *discordgo.Message, status string) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{Components: []discordgo.MessageComponent{}}
	if message == nil {
		return data
	}
	data.Content = message.Content
	for i, original := range message.Embeds {
		embed := *original
		if i == 0 {
			embed.Fields = append(append([]*discordgo.MessageEmbedField{}, original.Fields...),
				&discordgo.MessageEmbedField{Name: "Status", Value: status, Inline: false})
		}
		data.Embeds = append(data.Embeds, &embed)
	}
	return data
}

func DraftStatus(kind moderation.Kind, confirmed bool, by common.UserId) string {
	switch {
	case kind == moderation.KindEdit && confirmed:
		return "✅ Edited by " + by.Mention()
	case kind == moderation.KindEdit:
		return "❌ Edit canceled by " + by.Mention()
	case confirmed:
		return "✅ Confirmed by " + by.Mention()
	default:
		return "❌ Canceled by " + by.Mention()
	}
}

// Posted in the bot log when a case is confirmed
func ModerationLogged(record Moderation, location *time.Location) Response {
	color := colorOrange
	if moderation.Severe(record.Punishment) {
		color = colorRed
	}
	embed := discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Moderation Logged (Case #%d)", record.Id),
		Description: fmt.Sprintf("**%s** (%d)", record.Username, record.RobloxId),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Punishment", Value: record.Punishment, Inline: true},
			{Name: "Reason", Value: record.Reason, Inline: true},
			{Name: "Moderator", Value: record.ModeratorId.Mention(), Inline: false},
			{Name: "Time", Value: formatModerationTime(record.CreatedAt, location), Inline: false},
		},
	}
	return ResponseEmbed{embed}
}

func ModerationEdited(before Moderation, draft moderation.Draft, editor common.UserId) Response {
	embed := discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Moderation Edited (Case #%d)", before.Id),
		Description: fmt.Sprintf("Target: **%s** (%d)", before.Username, before.RobloxId),
		Color:       colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Old Punishment", Value: before.Punishment, Inline: true},
			{Name: "New Punishment", Value: draft.Punishment, Inline: true},
			{Name: "Old Reason", Value: before.Reason, Inline: false},
			{Name: "New Reason", Value: draft.Reason, Inline: false},
			{Name: "Edited By", Value: editor.Mention(), Inline: false},
		},
	}
	return ResponseEmbed{embed}
}

func ModerationRecorded(id int64) []Response {
	return []Response{ResponseString{fmt.Sprintf("Moderation recorded as **Case #%d**.", id)}}
}

func ModerationUpdated(id int64) []Response {
	return []Response{ResponseString{fmt.Sprintf("✅ Case `#%d` has been updated.", id)}}
}

func ModerationGone(id int64) []Response {
	return []Response{ResponseString{fmt.Sprintf("Case `#%d` no longer exists.", id)}}
}

func ModerationNotFound(id int64) []Response {
	return []Response{ResponseString{fmt.Sprintf("❌ Case `#%d` does not exist in this server.", id)}}
}

func ModerationCanceled(kind moderation.Kind) []Response {
	if kind == moderation.KindEdit {
		return []Response{ResponseString{"Moderation edit canceled. No changes were saved."}}
	}
	return []Response{ResponseString{"Moderation canceled. No record was saved."}}
}

func DraftNotAllowed(kind moderation.Kind) []Response {
	if kind == moderation.KindEdit {
		return []Response{ResponseString{"❌ You are not allowed to edit moderation logs."}}
	}
	return []Response{ResponseString{"❌ You are not allowed to confirm or cancel this moderation."}}
}

func DraftExpired() []Response {
	return []Response{ResponseString{"⌛ This moderation card expired. Run the command again."}}
}

func ManageServerRequired(command string) []Response {
	return []Response{ResponseString{fmt.Sprintf("❌ You need the Manage Server permission to use `/%s`.", command)}}
}

func RobloxUserNotFound() []Response {
	return []Response{ResponseString{"❌ Could not find that Roblox user."}}
}

func RobloxUnavailable() []Response {
	return []Response{ResponseString{"⚠️ Roblox did not answer, please try again later."}}
}

func NoModerations(profile roblox.Profile) []Response {
	return []Response{ResponseString{fmt.Sprintf("User **%s** (%d) has no recorded moderations.", profile.Display(), profile.Id)}}
}

// Newest cases first, capped so the embed stays readable
func ModerationHistory(profile roblox.Profile, records []Moderation, location *time.Location) []Response {

	if len(records) > HISTORY_LIMIT {
		records = records[:HISTORY_LIMIT]
	}
	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, fmt.Sprintf("Case #%d • %s\n• %s • %s • by %s",
			record.Id, formatModerationTime(record.CreatedAt, location), record.Punishment, record.Reason, record.ModeratorId.Mention()))
	}
	embed := discordgo.MessageEmbed{
		Title:       "Moderation History – " + profile.Display(),
		URL:         profile.ProfileUrl,
		Description: strings.Join(lines, "\n\n"),
		Color:       colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Roblox ID", Value: fmt.Sprintf("%d", profile.Id), Inline: true},
			{Name: "Username", Value: profile.Username(), Inline: true},
		},
	}
	if profile.ThumbnailUrl != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: profile.ThumbnailUrl}
	}
	return []Response{ResponseEmbed{embed}}
}

func ModStats(user *discordgo.User, displayName string, moderations ModeratorStats, shifts ShiftSummary, loas LoaStats) []Response {

	var average time.Duration
	if shifts.Count > 0 {
		average = shifts.Total / time.Duration(shifts.Count)
	}
	title := user.Username
	if title == "" {
		title = common.UserId(user.ID).Mention()
	}
	embed := discordgo.MessageEmbed{
		Title:  title,
		Color:  colorBlurple,
		Author: &discordgo.MessageEmbedAuthor{Name: displayName, IconURL: user.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Moderations",
				Value:  fmt.Sprintf("**Total Moderations:** %d\n**Moderated Individuals:** %d", moderations.Total, moderations.Individuals),
				Inline: false,
			},
			{
				Name: "Shifts",
				Value: fmt.Sprintf("**Total Shifts:** %d\n**Total Duration:** %s\n**Average Duration:** %s",
					shifts.Count, FormatLongDuration(shifts.Total), FormatLongDuration(average)),
				Inline: false,
			},
			{
				Name: "Leave of Absences",
				Value: fmt.Sprintf("**Total Accepted:** %d\n**Total Denied:** %d\n**Currently Pending:** %d\n**Total Duration:** %s",
					loas.Accepted, loas.Denied, loas.Pending, FormatLongDuration(loas.Total)),
				Inline: false,
			},
		},
	}
	return []Response{ResponseEmbed{embed}}
}

// Mod log

func MemberJoined(member *discordgo.Member) Response {
	embed := discordgo.MessageEmbed{
		Title:       "Member Joined",
		Description: fmt.Sprintf("%s (%s)", member.User.Mention(), member.User.ID),
		Color:       colorGreen,
	}
	return ResponseEmbed{embed}
}

func MessageDeleted(message *discordgo.Message, channelId string) Response {
	embed := discordgo.MessageEmbed{
		Title:       "Message Deleted",
		Description: fmt.Sprintf("Author: %s\nChannel: %s", message.Author.Mention(), channelMention(channelId)),
		Color:       colorRed,
	}
	if message.Content != "" {
		content := []rune(message.Content)
		if len(content) > 1000 {
			content = append(content[:997], []rune("...")...)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Content", Value: string(content), Inline: false})
	}
	return ResponseEmbed{embed}
}
