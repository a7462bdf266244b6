// Package events turns raw Discord interactions into the typed events the bot
// acts on. Each event maps to exactly one workflow operation; the mapping stays
// here so the workflow code never inspects custom IDs or option lists.
package events

import (
	"allowlist-bot/model"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Component and modal custom IDs.
const (
	ApplyButtonID       = "apply_btn"
	ApplyModalID        = "apply_modal"
	ReviewApprovePrefix = "review_approve:"
	ReviewDeclinePrefix = "review_decline:"
	DeclineModalPrefix  = "decline_modal:"
	ExemptListPage      = "exempt_list_page"
)

// Text input custom IDs.
const (
	InputHexID         = "hex_id"
	InputRealName      = "real_name"
	InputCharacterName = "character_name"
	InputAge           = "age"
	InputBackstory     = "backstory"
	InputDeclineReason = "decline_reason"
)

// Slash command names.
const (
	CommandSetupApplication     = "setup_application"
	CommandSetupCooldownChannel = "setup_cooldown_channel"
	CommandCooldownExempt       = "cooldown_exempt"
	CommandCooldownExemptList   = "cooldown_exempt_list"
	CommandCooldownCheck        = "cooldown_check"
	CommandBotInfo              = "botinfo"
)

// ErrUnhandled is returned for interactions the bot does not own.
var ErrUnhandled = errors.New("unhandled interaction")

// Event is one inbound interaction.
type Event interface {
	Kind() string
}

// Actor identifies who triggered an interaction and where.
type Actor struct {
	UserID      string
	DisplayName string
	GuildID     string
	ChannelID   string
	Member      *discordgo.Member
}

// ApplyRequest is a click on the Apply button.
type ApplyRequest struct{ Actor }

// Submission is a completed application form.
type Submission struct {
	Actor
	Fields model.ApplicationFields
}

// Approval is a click on a review message's Approve button.
type Approval struct {
	Actor
	ApplicationID int64
}

// DeclineRequest is a click on Decline; it opens the reason modal.
type DeclineRequest struct {
	Actor
	ApplicationID int64
}

// Decline is a submitted decline reason modal.
type Decline struct {
	Actor
	ApplicationID int64
	Reason        string
}

// SetupApplication posts the application panel.
type SetupApplication struct{ Actor }

// SetupCooldownChannel posts the exemption instructions.
type SetupCooldownChannel struct{ Actor }

// ExemptionChange grants or revokes a cooldown exemption.
type ExemptionChange struct {
	Actor
	TargetUserID string
	Exempt       bool
}

// ExemptionList lists the cooldown exemptions. Page buttons set Turn.
type ExemptionList struct {
	Actor
	Page int
	Turn bool
}

// CooldownCheck shows a user's application status and cooldown.
type CooldownCheck struct {
	Actor
	TargetUserID string
}

// BotInfo shows host and runtime stats.
type BotInfo struct{ Actor }

func (ApplyRequest) Kind() string         { return "apply_request" }
func (Submission) Kind() string           { return "submission" }
func (Approval) Kind() string             { return "approval" }
func (DeclineRequest) Kind() string       { return "decline_request" }
func (Decline) Kind() string              { return "decline" }
func (SetupApplication) Kind() string     { return "setup_application" }
func (SetupCooldownChannel) Kind() string { return "setup_cooldown_channel" }
func (ExemptionChange) Kind() string      { return "exemption_change" }
func (ExemptionList) Kind() string        { return "exemption_list" }
func (CooldownCheck) Kind() string        { return "cooldown_check" }
func (BotInfo) Kind() string              { return "botinfo" }

// Parse maps an interaction to its event. Interactions owned by nobody return ErrUnhandled.
func Parse(i *discordgo.InteractionCreate) (Event, error) {
	actor := actorOf(i)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return parseCommand(actor, i.ApplicationCommandData())
	case discordgo.InteractionMessageComponent:
		return parseComponent(actor, i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		return parseModal(actor, i.ModalSubmitData())
	}
	return nil, ErrUnhandled
}

func actorOf(i *discordgo.InteractionCreate) Actor {
	a := Actor{GuildID: i.GuildID, ChannelID: i.ChannelID, Member: i.Member}
	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
		a.DisplayName = i.Member.Nick
	}
	if user != nil {
		a.UserID = user.ID
		if a.DisplayName == "" {
			a.DisplayName = user.GlobalName
		}
		if a.DisplayName == "" {
			a.DisplayName = user.Username
		}
	}
	return a
}

func parseCommand(actor Actor, data discordgo.ApplicationCommandInteractionData) (Event, error) {
	switch data.Name {
	case CommandSetupApplication:
		return SetupApplication{actor}, nil
	case CommandSetupCooldownChannel:
		return SetupCooldownChannel{actor}, nil
	case CommandCooldownExemptList:
		return ExemptionList{Actor: actor, Page: 1}, nil
	case CommandBotInfo:
		return BotInfo{actor}, nil
	case CommandCooldownCheck:
		target, err := userOption(data.Options, "user")
		if err != nil {
			return nil, err
		}
		return CooldownCheck{Actor: actor, TargetUserID: target}, nil
	case CommandCooldownExempt:
		target, err := userOption(data.Options, "user")
		if err != nil {
			return nil, err
		}
		action, err := stringOption(data.Options, "action")
		if err != nil {
			return nil, err
		}
		exempt, err := ParseExemptAction(action)
		if err != nil {
			return nil, err
		}
		return ExemptionChange{Actor: actor, TargetUserID: target, Exempt: exempt}, nil
	}
	return nil, ErrUnhandled
}

func parseComponent(actor Actor, customID string) (Event, error) {
	switch {
	case customID == ApplyButtonID:
		return ApplyRequest{actor}, nil
	case strings.HasPrefix(customID, ReviewApprovePrefix):
		id, err := parseApplicationID(customID, ReviewApprovePrefix)
		if err != nil {
			return nil, err
		}
		return Approval{Actor: actor, ApplicationID: id}, nil
	case strings.HasPrefix(customID, ReviewDeclinePrefix):
		id, err := parseApplicationID(customID, ReviewDeclinePrefix)
		if err != nil {
			return nil, err
		}
		return DeclineRequest{Actor: actor, ApplicationID: id}, nil
	case strings.HasPrefix(customID, ExemptListPage+":"):
		page, err := strconv.Atoi(strings.TrimPrefix(customID, ExemptListPage+":"))
		if err != nil {
			return nil, fmt.Errorf("invalid page in custom id %q", customID)
		}
		return ExemptionList{Actor: actor, Page: page, Turn: true}, nil
	}
	return nil, ErrUnhandled
}

func parseModal(actor Actor, data discordgo.ModalSubmitInteractionData) (Event, error) {
	values := textInputValues(data.Components)

	switch {
	case data.CustomID == ApplyModalID:
		return Submission{
			Actor: actor,
			Fields: model.ApplicationFields{
				UserName:      actor.DisplayName,
				GuildID:       actor.GuildID,
				HexID:         values[InputHexID],
				RealName:      values[InputRealName],
				CharacterName: values[InputCharacterName],
				Age:           values[InputAge],
				Backstory:     values[InputBackstory],
			},
		}, nil
	case strings.HasPrefix(data.CustomID, DeclineModalPrefix):
		id, err := parseApplicationID(data.CustomID, DeclineModalPrefix)
		if err != nil {
			return nil, err
		}
		return Decline{Actor: actor, ApplicationID: id, Reason: values[InputDeclineReason]}, nil
	}
	return nil, ErrUnhandled
}

// ParseExemptAction maps the exemption command action to grant (true) or revoke (false).
func ParseExemptAction(action string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "add", "grant":
		return true, nil
	case "remove", "revoke":
		return false, nil
	}
	return false, fmt.Errorf("invalid action %q, use 'add' or 'remove'", action)
}

func parseApplicationID(customID, prefix string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(customID, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid application id in custom id %q", customID)
	}
	return id, nil
}

func textInputValues(components []discordgo.MessageComponent) map[string]string {
	values := make(map[string]string)
	for _, c := range components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, rc := range row.Components {
			if input, ok := rc.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}

func userOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) (string, error) {
	for _, opt := range opts {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionUser {
			return opt.UserValue(nil).ID, nil
		}
	}
	return "", fmt.Errorf("missing %s option", name)
}

func stringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) (string, error) {
	for _, opt := range opts {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue(), nil
		}
	}
	return "", fmt.Errorf("missing %s option", name)
}
