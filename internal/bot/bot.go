// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-loto-bot/internal/config"
	"telegram-loto-bot/internal/handler"
	"telegram-loto-bot/internal/lottery"
	"telegram-loto-bot/internal/pkg/lock"
	"telegram-loto-bot/internal/repository"
	"telegram-loto-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	accountHandler *handler.AccountHandler
	gameHandler    *handler.GameHandler
	lotteryHandler *handler.LotteryHandler
	adminHandler   *handler.AdminHandler
}

// Dependencies holds what the bot handlers need.
type Dependencies struct {
	Config        *config.Config
	LedgerService *service.LedgerService
	StatsService  *service.StatsService
	RoundRepo     *repository.RoundRepository
	UserLock      *lock.KeyedLock
	ChatLock      *lock.KeyedLock
}

// New creates a new Bot instance with the given dependencies. The lottery
// coordinator is built here because it needs the telebot connection.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	messenger := NewMessenger(teleBot)

	coordinator := lottery.New(
		lottery.Config{
			Window:        deps.Config.Lottery.Window(),
			SuspenseDelay: lottery.DefaultSuspenseDelay,
			WinAmount:     deps.Config.Lottery.WinAmount,
			LoserPenalty:  deps.Config.Lottery.LoserPenalty,
			MinStake:      deps.Config.Lottery.MinStake,
		},
		deps.RoundRepo,
		deps.LedgerService,
		messenger,
		lottery.NewAnswerBuffer(),
		deps.ChatLock,
	)

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	b.accountHandler = handler.NewAccountHandler(deps.LedgerService)
	b.gameHandler = handler.NewGameHandler(deps.Config, deps.LedgerService, deps.StatsService, messenger, deps.UserLock)
	b.lotteryHandler = handler.NewLotteryHandler(coordinator)
	b.adminHandler = handler.NewAdminHandler(deps.LedgerService, deps.UserLock)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

func (b *Bot) registerHandlers() {
	// Account handlers
	b.bot.Handle("/start", b.accountHandler.HandleHelp)
	b.bot.Handle("/help", b.accountHandler.HandleHelp)
	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/top", b.accountHandler.HandleTop)

	// Lottery handlers
	b.bot.Handle("/roll", b.lotteryHandler.HandleRoll)
	b.bot.Handle(tele.OnPollAnswer, b.lotteryHandler.HandlePollAnswer)

	// Game handlers
	b.bot.Handle(tele.OnDice, b.gameHandler.HandleDice)
	b.bot.Handle("/stats", b.gameHandler.HandleStats)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/resetroll", b.lotteryHandler.HandleResetRoll)
	adminGroup.Handle("/admin_add", b.adminHandler.HandleAdminAdd)
	adminGroup.Handle("/admin_sub", b.adminHandler.HandleAdminSub)
	adminGroup.Handle("/admin_set", b.adminHandler.HandleAdminSet)
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
