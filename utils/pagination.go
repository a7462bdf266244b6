package utils

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Paginate clamps page into range and returns the slice bounds for it.
// Pages are 1-based; an empty list still has one page.
func Paginate(total, pageSize, page int) (start, end, current, totalPages int) {
	totalPages = (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	current = page
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}
	start = (current - 1) * pageSize
	end = start + pageSize
	if end > total {
		end = total
	}
	return start, end, current, totalPages
}

// CreatePaginationComponents creates a set of pagination buttons.
func CreatePaginationComponents(currentPage, totalPages int, customIDPrefix string, args ...string) []discordgo.MessageComponent {
	if totalPages <= 1 {
		return nil
	}

	buttonArgs := ""
	for _, arg := range args {
		buttonArgs += ":" + arg
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Previous",
					Style:    discordgo.PrimaryButton,
					Disabled: currentPage == 1,
					CustomID: fmt.Sprintf("%s:%d%s", customIDPrefix, currentPage-1, buttonArgs),
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.PrimaryButton,
					Disabled: currentPage == totalPages,
					CustomID: fmt.Sprintf("%s:%d%s", customIDPrefix, currentPage+1, buttonArgs),
				},
			},
		},
	}
}
