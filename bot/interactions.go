package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/researchaccelerator-hub/manga-notifier/commands"
	"github.com/rs/zerolog/log"
)

const createCommandName = "create"

// interactionResponder is the subset of *discordgo.Session used to answer
// slash commands.
type interactionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// commandRegistrar is the subset of *discordgo.Session used to publish
// slash command definitions.
type commandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// CommandDefinitions returns the slash commands the bot answers.
func CommandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        createCommandName,
			Description: "Create a manga or a site",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "manga",
					Description: "Add a manga to the database",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "anilist_id", Description: "The Anilist ID", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "chapter", Description: "The last read chapter", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "The name of the manga", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "site", Description: "The site of the manga", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "site",
					Description: "Add a site to the database",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "url", Description: "The url of the site", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "chapter_path", Description: "Path between the site url and the chapter number"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "selector", Description: "CSS selector present on published chapter pages"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "site_to_manga",
					Description: "Add a site to a manga",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "manga", Description: "The name of the manga", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "site", Description: "The name of the site", Required: true},
					},
				},
			},
		},
	}
}

// registerCommands publishes the command definitions, scoped to a guild when
// guildID is set.
func registerCommands(r commandRegistrar, appID, guildID string) error {
	created, err := r.ApplicationCommandBulkOverwrite(appID, guildID, CommandDefinitions())
	if err != nil {
		return fmt.Errorf("failed to register slash commands: %w", err)
	}
	log.Info().Int("count", len(created)).Str("guild_id", guildID).Msg("Slash commands registered")
	return nil
}

// handleInteraction defers the reply, runs the command and edits the
// deferred reply with the outcome.
func (b *Bot) handleInteraction(r interactionResponder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != createCommandName {
		return
	}

	if err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.Error().Err(err).Str("interaction_id", i.ID).Msg("Failed to defer interaction reply")
		return
	}

	ctx, cancel := context.WithTimeout(b.baseContext(), b.callTimeout)
	defer cancel()

	reply := b.runCreate(ctx, data)

	if _, err := r.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &reply}); err != nil {
		log.Error().Err(err).Str("interaction_id", i.ID).Msg("Failed to edit interaction reply")
	}
}

// runCreate dispatches a "create" subcommand and returns the reply text.
func (b *Bot) runCreate(ctx context.Context, data discordgo.ApplicationCommandInteractionData) string {
	if len(data.Options) == 0 {
		return "Error: missing subcommand"
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	var (
		reply string
		err   error
	)
	switch sub.Name {
	case "site":
		reply, err = b.commands.CreateSite(ctx, commands.CreateSiteRequest{
			URL:         opts.str("url"),
			ChapterPath: opts.str("chapter_path"),
			Selector:    opts.str("selector"),
		})
	case "manga":
		reply, err = b.commands.CreateManga(ctx, commands.CreateMangaRequest{
			AnilistID: int(opts.integer("anilist_id")),
			Chapter:   opts.str("chapter"),
			Name:      opts.str("name"),
			Site:      opts.str("site"),
		})
	case "site_to_manga":
		reply, err = b.commands.SiteToManga(ctx, opts.str("manga"), opts.str("site"))
	default:
		return fmt.Sprintf("Error: unknown subcommand %s", sub.Name)
	}

	if err != nil {
		log.Error().Err(err).Str("subcommand", sub.Name).Msg("Command failed")
		return fmt.Sprintf("Error: %s", err.Error())
	}
	return reply
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (o options) str(name string) string {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return opt.StringValue()
}

func (o options) integer(name string) int64 {
	opt, ok := o[name]
	if !ok {
		return 0
	}
	switch opt.Type {
	case discordgo.ApplicationCommandOptionInteger:
		return opt.IntValue()
	case discordgo.ApplicationCommandOptionNumber:
		return int64(opt.FloatValue())
	}
	return 0
}
