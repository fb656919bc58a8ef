package bot

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/smashmate/internal/domain"
)

func commands() []*discordgo.ApplicationCommand {
	sessionOption := []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "session",
			Description: "Session ID",
			Required:    true,
		},
	}
	return []*discordgo.ApplicationCommand{
		{
			Name:         "split",
			Description:  "Court fee split for a session",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show how the court fee is split and who still owes",
					Options:     sessionOption,
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remind",
					Description: "Post a payment reminder for everyone who hasn't paid",
					Options:     sessionOption,
				},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != "split" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	content := b.splitReply(ctx, interactionUserID(i), data.Options)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: chunkMessage(content, maxMessageLength)[0],
		},
	}); err != nil {
		log.Printf("bot: failed to respond to /split: %v", err)
	}
}

// interactionUserID is the invoking user; Member is set in guilds, User in DMs.
func interactionUserID(i *discordgo.InteractionCreate) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	}
	return ""
}

// canSee mirrors the HTTP read rule: only the creator and participants.
func canSee(s *domain.Session, userID string) bool {
	return userID != "" && (s.CreatorID == userID || s.HasParticipant(userID))
}

func (b *Bot) splitReply(ctx context.Context, userID string, options []*discordgo.ApplicationCommandInteractionDataOption) string {
	if len(options) == 0 {
		return "Pick a subcommand: status or remind."
	}
	sub := options[0]

	var sessionID string
	for _, opt := range sub.Options {
		if opt.Name == "session" {
			sessionID = opt.StringValue()
		}
	}
	if sessionID == "" {
		return "A session ID is required."
	}

	switch sub.Name {
	case "status":
		s, bal, err := b.sessions.SummaryBySessionID(ctx, sessionID)
		if err != nil {
			return lookupFailure(sessionID, err)
		}
		if !canSee(s, userID) {
			return notAMember
		}
		return formatSummary(s, bal)
	case "remind":
		s, unpaid, err := b.sessions.UnpaidBySessionID(ctx, sessionID)
		if err != nil {
			return lookupFailure(sessionID, err)
		}
		if !canSee(s, userID) {
			return notAMember
		}
		if len(unpaid) == 0 {
			return "Everyone has paid. 🎉"
		}
		return formatReminder(s, unpaid)
	default:
		return "Unknown subcommand."
	}
}

const notAMember = "Only the organizer and participants of that session can use this."

func lookupFailure(sessionID string, err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "No session with ID " + sessionID + "."
	}
	log.Printf("bot: lookup session %s: %v", sessionID, err)
	return "Something went wrong looking up that session."
}
