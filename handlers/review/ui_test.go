package review

import (
	"allowlist-bot/model"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApplication(story string) *model.Application {
	return &model.Application{
		ID:            12,
		UserID:        "user-1",
		UserName:      "Alex",
		GuildID:       "guild-1",
		HexID:         "steam:1100001",
		RealName:      "Alex Smith",
		CharacterName: "Jimmy Carter",
		Age:           21,
		Backstory:     story,
		Status:        model.StatusPending,
		SubmittedAt:   1_700_000_000,
	}
}

func fieldValue(embed *discordgo.MessageEmbed, name string) (string, bool) {
	for _, f := range embed.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func TestReviewEmbed_ShortStory(t *testing.T) {
	app := testApplication("Grew up in Sandy Shores.")

	embed := ReviewEmbed(app)

	assert.Equal(t, "Allowlist Application - Alex", embed.Title)
	assert.Equal(t, "Application ID: 12 | User ID: user-1", embed.Footer.Text)
	story, ok := fieldValue(embed, "Character Story")
	require.True(t, ok)
	assert.Equal(t, app.Backstory, story)
	_, hasNote := fieldValue(embed, "Note")
	assert.False(t, hasNote)
	assert.Nil(t, StoryAttachment(app))
}

func TestReviewEmbed_LongStoryIsTruncatedAndAttached(t *testing.T) {
	app := testApplication(strings.Repeat("é", 1500))

	embed := ReviewEmbed(app)

	story, ok := fieldValue(embed, "Character Story")
	require.True(t, ok)
	assert.Equal(t, 1003, len([]rune(story)))
	assert.True(t, strings.HasSuffix(story, "..."))
	_, hasNote := fieldValue(embed, "Note")
	assert.True(t, hasNote)

	file := StoryAttachment(app)
	require.NotNil(t, file)
	assert.Equal(t, "character_story_user-1.txt", file.Name)
	content, err := io.ReadAll(file.Reader)
	require.NoError(t, err)
	assert.Equal(t, app.Backstory, string(content))
}

func TestReviewEmbed_StoryAtLimitFits(t *testing.T) {
	app := testApplication(strings.Repeat("a", embedFieldLimit))

	story, _ := fieldValue(ReviewEmbed(app), "Character Story")
	assert.Equal(t, app.Backstory, story)
	assert.Nil(t, StoryAttachment(app))
}

func TestReviewComponents(t *testing.T) {
	rows := ReviewComponents(12)
	require.Len(t, rows, 1)
	row := rows[0].(discordgo.ActionsRow)
	require.Len(t, row.Components, 2)
	assert.Equal(t, "review_approve:12", row.Components[0].(discordgo.Button).CustomID)
	assert.Equal(t, "review_decline:12", row.Components[1].(discordgo.Button).CustomID)
}

func TestMarkDecided(t *testing.T) {
	app := testApplication("story")
	original := ReviewEmbed(app)
	moderator := "mod-1"
	reason := "incomplete backstory"
	app.Status = model.StatusDeclined
	app.ModeratorID = &moderator
	app.DecisionReason = &reason

	marked := MarkDecided(original, app)

	assert.Equal(t, "DECLINED - Allowlist Application - Alex", marked.Title)
	value, ok := fieldValue(marked, "Reason")
	require.True(t, ok)
	assert.Equal(t, reason, value)
	_, ok = fieldValue(original, "Reason")
	assert.False(t, ok, "original embed must not change")

	again := MarkDecided(marked, app)
	assert.Equal(t, "DECLINED - Allowlist Application - Alex", again.Title)
}

func TestDecisionLogEmbed(t *testing.T) {
	app := testApplication("story")
	app.Status = model.StatusApproved
	banners := model.Banners{Approved: "https://example.com/ok.png"}

	embed := DecisionLogEmbed(app, "Mod", banners, nil)
	assert.Equal(t, "Application Approved", embed.Title)
	assert.Equal(t, "Approved by Mod", embed.Footer.Text)
	require.NotNil(t, embed.Image)
	_, hasWarning := fieldValue(embed, "Warning")
	assert.False(t, hasWarning)

	embed = DecisionLogEmbed(app, "Mod", banners, errors.New("missing access"))
	_, hasWarning = fieldValue(embed, "Warning")
	assert.True(t, hasWarning)
}

func TestUserDecisionEmbed(t *testing.T) {
	app := testApplication("story")
	app.Status = model.StatusApproved
	assert.Contains(t, UserDecisionEmbed(app, true, model.Banners{}).Description, "granted the allowlisted role")
	assert.NotContains(t, UserDecisionEmbed(app, false, model.Banners{}).Description, "granted")

	reason := "wrong hex id"
	app.Status = model.StatusDeclined
	app.DecisionReason = &reason
	embed := UserDecisionEmbed(app, false, model.Banners{})
	assert.Equal(t, "Application Declined", embed.Title)
	value, _ := fieldValue(embed, "Reason")
	assert.Equal(t, reason, value)
	assert.Nil(t, embed.Image)
}
