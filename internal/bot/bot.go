package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/smashmate/internal/domain"
	"github.com/susu3304/smashmate/internal/fare"
)

// SessionLookup is the read side of the session service the bot needs.
type SessionLookup interface {
	UnpaidBySessionID(ctx context.Context, id string) (*domain.Session, []fare.Allocation, error)
	SummaryBySessionID(ctx context.Context, id string) (*domain.Session, fare.Balance, error)
}

// Minimal session interface for sending channel messages.
type messageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Bot struct {
	session        *discordgo.Session
	sender         messageSender
	sessions       SessionLookup
	defaultChannel string
}

func New(token, defaultChannel string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session:        session,
		sender:         session,
		defaultChannel: defaultChannel,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds

	return bot, nil
}

// Start connects to Discord. Slash commands answer from sessions.
func (b *Bot) Start(sessions SessionLookup) error {
	b.sessions = sessions
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	log.Println("bot: Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("bot: %s is connected", event.User.Username)

	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(guild.ID); err != nil {
			log.Printf("bot: failed to register commands for guild %s: %v", guild.ID, err)
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	if err := b.registerGuildCommands(event.ID); err != nil {
		log.Printf("bot: failed to register commands for guild %s: %v", event.ID, err)
	}
}

func (b *Bot) registerGuildCommands(guildID string) error {
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, guildID, commands())
	if err != nil {
		return err
	}
	log.Printf("bot: registered application commands for guild %s", guildID)
	return nil
}

// NotifyUnpaid posts the unpaid list to channelID, or to the default
// reminder channel when channelID is empty.
func (b *Bot) NotifyUnpaid(ctx context.Context, s *domain.Session, unpaid []fare.Allocation, channelID string) error {
	if channelID == "" {
		channelID = b.defaultChannel
	}
	if channelID == "" {
		return fmt.Errorf("%w: no reminder channel configured", domain.ErrValidation)
	}
	for _, chunk := range chunkMessage(formatReminder(s, unpaid), maxMessageLength) {
		if err := b.sendWithRetry(ctx, channelID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) sendWithRetry(ctx context.Context, channelID, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := b.sender.ChannelMessageSend(channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}
		time.Sleep(time.Duration(300+rand.Intn(500)) * time.Millisecond)
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout()
	}
	return false
}

// LogNotifier stands in for the bot when no Discord token is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyUnpaid(_ context.Context, s *domain.Session, unpaid []fare.Allocation, channelID string) error {
	log.Printf("bot: reminder for session %s (channel %q):\n%s", s.ID, channelID, formatReminder(s, unpaid))
	return nil
}
