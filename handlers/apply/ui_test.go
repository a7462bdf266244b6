package apply

import (
	"allowlist-bot/handlers/events"
	"allowlist-bot/model"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationModal(t *testing.T) {
	rows := ApplicationModal()
	require.Len(t, rows, 5)

	var ids []string
	for _, row := range rows {
		r := row.(discordgo.ActionsRow)
		require.Len(t, r.Components, 1)
		input := r.Components[0].(discordgo.TextInput)
		assert.True(t, input.Required)
		ids = append(ids, input.CustomID)
	}
	assert.Equal(t, []string{events.InputHexID, events.InputRealName, events.InputCharacterName, events.InputAge, events.InputBackstory}, ids)
}

func TestPanel(t *testing.T) {
	assert.Nil(t, PanelEmbed(model.Banners{}).Image)
	embed := PanelEmbed(model.Banners{Application: "https://example.com/banner.png"})
	require.NotNil(t, embed.Image)
	assert.Equal(t, "https://example.com/banner.png", embed.Image.URL)

	row := PanelComponents()[0].(discordgo.ActionsRow)
	assert.Equal(t, events.ApplyButtonID, row.Components[0].(discordgo.Button).CustomID)
}
