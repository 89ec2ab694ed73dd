package bot

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/servwatch/internal/collector"
	"codeberg.org/mutker/servwatch/internal/errors"
	"codeberg.org/mutker/servwatch/internal/history"
	"codeberg.org/mutker/servwatch/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	pollTimeoutSeconds = 30
	topProcessCount    = 5
	serviceListLimit   = 20
	reportWindow       = 24 * time.Hour
)

// Bot is the Telegram transport: it delivers alerts and the daily report
// to the configured chat and answers on-demand query commands.
type Bot struct {
	api       *tgbotapi.BotAPI
	chatID    int64
	server    string
	collector *collector.Collector
	recorder  history.Recorder
}

func New(token string, chatID int64, server string, c *collector.Collector, rec history.Recorder) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.New().Wrap(ErrInitFailed, err)
	}

	logger.Info().Str("username", api.Self.UserName).Msg("Telegram bot authorized")

	return &Bot{
		api:       api,
		chatID:    chatID,
		server:    server,
		collector: c,
		recorder:  rec,
	}, nil
}

// Run polls for updates until the context is cancelled. Commands from
// chats other than the configured one are ignored.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)

	logger.Info().Msg("Telegram bot polling started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	if update.Message.Chat.ID != b.chatID {
		logger.Debug().Int64("chat_id", update.Message.Chat.ID).Msg("Ignoring command from unknown chat")
		return
	}

	command := update.Message.Command()
	logger.Debug().Str("command", command).Msg("Handling bot command")

	text, err := b.respond(command)
	if err != nil {
		logger.Error().Str("command", command).Err(err).Msg("Command handling failed")
		text = fmt.Sprintf("Failed to handle /%s: %v", command, err)
	}
	if text == "" {
		return
	}

	if err := b.sendText(text); err != nil {
		logger.Error().Str("command", command).Err(err).Msg("Failed to send command reply")
	}
}

func (b *Bot) respond(command string) (string, error) {
	switch command {
	case "start":
		return fmt.Sprintf("Welcome to the %s monitor bot!\nUse /help to see available commands.", b.server), nil
	case "help":
		return helpText(), nil
	case "status":
		return b.statusReply()
	case "cpu":
		return b.cpuReply()
	case "memory":
		return b.memoryReply()
	case "disk":
		return b.diskReply()
	case "gpu":
		return b.gpuReply()
	case "temps":
		return b.tempsReply(), nil
	case "services":
		return b.servicesReply(), nil
	case "containers":
		return b.containersReply(), nil
	case "tmux":
		return b.tmuxReply(), nil
	case "top":
		return b.topReply()
	case "uptime":
		return b.uptimeReply()
	default:
		return "Unknown command. Use /help to see available commands.", nil
	}
}

func (b *Bot) statusReply() (string, error) {
	snapshot, err := b.collector.Snapshot()
	if err != nil {
		return "", err
	}

	return statusText(b.server, snapshot), nil
}

func (b *Bot) cpuReply() (string, error) {
	detail, err := b.collector.System().CPUDetail()
	if err != nil {
		return "", err
	}
	loadAvg, _ := b.collector.System().LoadAverage()

	return cpuText(detail, loadAvg), nil
}

func (b *Bot) memoryReply() (string, error) {
	memory, err := b.collector.System().Memory()
	if err != nil {
		return "", err
	}

	return memoryText(memory), nil
}

func (b *Bot) diskReply() (string, error) {
	disks, err := b.collector.System().Disks()
	if err != nil {
		return "", err
	}

	return diskText(disks), nil
}

func (b *Bot) gpuReply() (string, error) {
	if !b.collector.GPU().Available() {
		return "No NVIDIA GPU detected.", nil
	}

	return gpuText(b.collector.GPU().Readings()), nil
}

// The host-tool replies degrade to a plain notice: a missing sensor
// tree, systemctl, docker or tmux is a property of the host, not a
// command failure.
func (b *Bot) tempsReply() string {
	temps, err := b.collector.System().Temperatures()
	if err != nil || len(temps) == 0 {
		logger.Debug().Err(err).Msg("No sensor temperatures available")
		return "No temperature sensors detected."
	}

	return tempsText(temps)
}

func (b *Bot) servicesReply() string {
	services, err := b.collector.System().RunningServices(serviceListLimit)
	if err != nil || len(services) == 0 {
		logger.Debug().Err(err).Msg("No running services available")
		return "No running services found or systemctl not available."
	}

	return servicesText(services)
}

func (b *Bot) containersReply() string {
	containers, err := b.collector.System().DockerContainers()
	if err != nil || len(containers) == 0 {
		logger.Debug().Err(err).Msg("No containers available")
		return "No running containers or Docker not available."
	}

	return containersText(containers)
}

func (b *Bot) tmuxReply() string {
	sessions, err := b.collector.System().TmuxSessions()
	if err != nil || len(sessions) == 0 {
		logger.Debug().Err(err).Msg("No tmux sessions available")
		return "No tmux sessions or tmux not available."
	}

	return tmuxText(sessions)
}

func (b *Bot) topReply() (string, error) {
	procs, err := b.collector.System().TopProcesses(topProcessCount)
	if err != nil {
		return "", err
	}

	return topText(procs), nil
}

func (b *Bot) uptimeReply() (string, error) {
	uptime, err := b.collector.System().Uptime()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("<b>Uptime:</b> %s", formatUptime(uptime)), nil
}

// SendDailyReport composes and sends the daily summary. It bypasses the
// alert engine entirely: no classification, no cooldown gate.
func (b *Bot) SendDailyReport(ctx context.Context) error {
	snapshot, err := b.collector.Snapshot()
	if err != nil {
		return err
	}

	summary, err := b.recorder.Summary(ctx, time.Now().Add(-reportWindow))
	if err != nil {
		logger.Warn().Err(err).Msg("History summary unavailable for daily report")
		summary = history.Summary{}
	}

	if err := b.sendText(dailyReportText(b.server, snapshot, summary)); err != nil {
		return err
	}

	logger.Info().Msg("Daily report sent")

	return nil
}

func (b *Bot) sendText(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := b.api.Send(msg); err != nil {
		return errors.New().Wrap(ErrSendFailed, err)
	}

	return nil
}
