package utils

import "github.com/bwmarrin/discordgo"

// Permission levels
const (
	AdminPermission     = "admin"
	ModeratorPermission = "moderator"
	GuestPermission     = "guest"
)

// contains checks if a slice of strings contains an element.
func contains(slice []string, item string) bool {
	for _, a := range slice {
		if a == item {
			return true
		}
	}
	return false
}

// CheckPermission returns the highest permission level of an interaction member.
// Administrators outrank everyone; Manage Server or any configured moderator role
// makes a moderator.
func CheckPermission(member *discordgo.Member, moderatorRoleIDs []string) string {
	if member == nil {
		return GuestPermission
	}

	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return AdminPermission
	}

	if member.Permissions&discordgo.PermissionManageServer != 0 {
		return ModeratorPermission
	}
	for _, roleID := range member.Roles {
		if contains(moderatorRoleIDs, roleID) {
			return ModeratorPermission
		}
	}

	return GuestPermission
}

// IsModerator reports whether the member may review applications.
func IsModerator(member *discordgo.Member, moderatorRoleIDs []string) bool {
	return CheckPermission(member, moderatorRoleIDs) != GuestPermission
}

// IsAdmin reports whether the member holds the Administrator permission.
func IsAdmin(member *discordgo.Member) bool {
	return CheckPermission(member, nil) == AdminPermission
}

// CanManageServer reports whether the member holds Manage Server or Administrator.
// Configured moderator roles do not count.
func CanManageServer(member *discordgo.Member) bool {
	return CheckPermission(member, nil) != GuestPermission
}
