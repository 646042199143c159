package bot

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

const (
	ROLE_SUPERVISOR      = "Supervisor"
	ROLE_LEAD_SUPERVISOR = "Lead Supervisor"
)

// Role ids that grant the staff commands. Administrators pass every check
type Permissions struct {
	SupervisorRoleId     string
	LeadSupervisorRoleId string
}

func isAdministrator(member *discordgo.Member) bool {
	return member.Permissions&discordgo.PermissionAdministrator != 0
}

func hasRole(member *discordgo.Member, roleId string) bool {
	return roleId != "" && slices.Contains(member.Roles, roleId)
}

func (permissions Permissions) IsLeadPlus(member *discordgo.Member) bool {
	return isAdministrator(member) || hasRole(member, permissions.LeadSupervisorRoleId)
}

func (permissions Permissions) IsSupervisor(member *discordgo.Member) bool {
	return permissions.IsLeadPlus(member) || hasRole(member, permissions.SupervisorRoleId)
}

// Force ending a shift also works for moderators with manage messages
func (permissions Permissions) CanResetClocks(member *discordgo.Member) bool {
	return permissions.IsLeadPlus(member) || member.Permissions&discordgo.PermissionManageMessages != 0
}

func (permissions Permissions) CanManageGuild(member *discordgo.Member) bool {
	return isAdministrator(member) || member.Permissions&discordgo.PermissionManageServer != 0
}

// Staff who can open moderation cards
func (permissions Permissions) CanModerate(member *discordgo.Member) bool {
	return permissions.IsSupervisor(member) || permissions.CanManageGuild(member)
}
