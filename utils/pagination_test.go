package utils

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name                                    string
		total, size, page                       int
		wantStart, wantEnd, wantPage, wantPages int
	}{
		{"empty list", 0, 20, 1, 0, 0, 1, 1},
		{"first page", 45, 20, 1, 0, 20, 1, 3},
		{"last partial page", 45, 20, 3, 40, 45, 3, 3},
		{"page past the end", 45, 20, 9, 40, 45, 3, 3},
		{"page below one", 45, 20, 0, 0, 20, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, page, pages := Paginate(tt.total, tt.size, tt.page)
			assert.Equal(t, []int{tt.wantStart, tt.wantEnd, tt.wantPage, tt.wantPages}, []int{start, end, page, pages})
		})
	}
}

func TestCreatePaginationComponents(t *testing.T) {
	assert.Nil(t, CreatePaginationComponents(1, 1, "exempt_list_page"))

	rows := CreatePaginationComponents(1, 3, "exempt_list_page")
	require.Len(t, rows, 1)
	buttons := rows[0].(discordgo.ActionsRow).Components
	prev := buttons[0].(discordgo.Button)
	next := buttons[1].(discordgo.Button)
	assert.True(t, prev.Disabled)
	assert.False(t, next.Disabled)
	assert.Equal(t, "exempt_list_page:2", next.CustomID)
}
