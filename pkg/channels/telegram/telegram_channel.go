package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"mentor/pkg/api"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig encapsulates the credentials for the Telegram Bot API.
type TelegramConfig struct {
	Token        string `json:"token"`                   // BOT API string from @BotFather
	MessageLimit int    `json:"message_limit,omitempty"` // max characters per bubble
}

// chatPrefs holds the per-chat response settings toggled with /mode and
// /mem. They travel on every UnifiedMessage instead of living in the core.
type chatPrefs struct {
	mode   api.Mode
	memory bool
}

// TelegramChannel implements gateway.Channel over long polling.
type TelegramChannel struct {
	config       TelegramConfig
	bot          *tgbotapi.BotAPI
	messageLimit int

	mu    sync.Mutex
	prefs map[int64]*chatPrefs

	stopCtx    context.Context // aborts the long-polling HTTP request
	stopCancel context.CancelFunc
}

func NewTelegramChannel(cfg TelegramConfig) (api.Channel, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Dedicated HTTP client tied to stopCtx, so an active long-poll request
	// is aborted immediately on Stop() instead of holding the token and
	// causing a 409 Conflict on restart.
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	botHTTPClient := &http.Client{
		Timeout: 90 * time.Second,
		Transport: &http.Transport{
			DialContext: func(dialCtx context.Context, network, addr string) (net.Conn, error) {
				mergedCtx, mergedCancel := context.WithCancel(dialCtx)
				go func() {
					select {
					case <-ctx.Done():
						mergedCancel()
					case <-mergedCtx.Done():
					}
				}()
				return dialer.DialContext(mergedCtx, network, addr)
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, botHTTPClient)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)

	limit := cfg.MessageLimit
	if limit <= 0 {
		limit = 4000
	}

	return &TelegramChannel{
		config:       cfg,
		bot:          bot,
		messageLimit: limit,
		prefs:        make(map[int64]*chatPrefs),
		stopCtx:      ctx,
		stopCancel:   cancel,
	}, nil
}

// ID returns the unique platform identifier "telegram".
func (t *TelegramChannel) ID() string {
	return "telegram"
}

// Start runs the long-polling update loop in a background goroutine.
func (t *TelegramChannel) Start(ctx api.ChannelContext) error {
	offset := 0

	go func() {
		for {
			select {
			case <-t.stopCtx.Done():
				return
			default:
			}

			reqConfig := tgbotapi.NewUpdate(offset)
			reqConfig.Timeout = 60

			// manual GetUpdates loop instead of GetUpdatesChan, so shutdown
			// can abort the request via the custom transport
			updates, err := t.bot.GetUpdates(reqConfig)
			if err != nil {
				select {
				case <-t.stopCtx.Done():
					return
				default:
					slog.Debug("Failed to get telegram updates", "error", err)
					time.Sleep(3 * time.Second)
					continue
				}
			}

			for _, update := range updates {
				if update.UpdateID < offset {
					continue
				}
				offset = update.UpdateID + 1

				if update.Message == nil || update.Message.Text == "" {
					continue
				}
				t.handleMessage(ctx, update.Message)
			}
		}
	}()

	return nil
}

func (t *TelegramChannel) handleMessage(ctx api.ChannelContext, m *tgbotapi.Message) {
	session := api.SessionContext{
		ChannelID: t.ID(),
		UserID:    strconv.FormatInt(m.From.ID, 10),
		ChatID:    strconv.FormatInt(m.Chat.ID, 10),
		Username:  displayName(m),
	}

	prefs := t.chatPrefs(m.Chat.ID)

	// /mode and /mem are UI settings; they never reach the engine
	if reply, handled := t.interceptPrefs(prefs, m.Text); handled {
		if err := t.Send(session, api.Response{Text: reply, Source: api.SourceSystem}); err != nil {
			slog.Warn("Failed to send prefs reply", "error", err)
		}
		return
	}

	ctx.OnMessage(t.ID(), &api.UnifiedMessage{
		Session:   session,
		Content:   m.Text,
		Mode:      prefs.mode,
		UseMemory: prefs.memory,
	})
}

func displayName(m *tgbotapi.Message) string {
	if m.From.UserName != "" {
		return m.From.UserName
	}
	return strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)
}

func (t *TelegramChannel) chatPrefs(chatID int64) *chatPrefs {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.prefs[chatID]
	if !ok {
		p = &chatPrefs{mode: api.ModeTutor, memory: true}
		t.prefs[chatID] = p
	}
	return p
}

// interceptPrefs applies /mode and /mem locally.
func (t *TelegramChannel) interceptPrefs(p *chatPrefs, text string) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return "", false
	}

	switch strings.ToLower(fields[0]) {
	case "/mode":
		if len(fields) < 2 {
			return fmt.Sprintf("Current mode: %s (tutor, direct, review, lab, quiz)", p.mode), true
		}
		t.mu.Lock()
		p.mode = api.ParseMode(fields[1])
		t.mu.Unlock()
		return fmt.Sprintf("Mode set to %s.", p.mode), true

	case "/mem":
		if len(fields) < 2 {
			state := "on"
			if !p.memory {
				state = "off"
			}
			return fmt.Sprintf("Memory is %s (/mem on, /mem off)", state), true
		}
		t.mu.Lock()
		p.memory = strings.EqualFold(fields[1], "on")
		t.mu.Unlock()
		if p.memory {
			return "Memory on: recent turns will be used for context.", true
		}
		return "Memory off: each question stands alone.", true
	}

	return "", false
}

// Send delivers one response, chunked to the platform message limit.
func (t *TelegramChannel) Send(session api.SessionContext, resp api.Response) error {
	chatID, err := strconv.ParseInt(session.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id for telegram: %s", session.ChatID)
	}

	msgRunes := []rune(resp.Text)
	totalLen := len(msgRunes)

	if totalLen <= t.messageLimit {
		msg := tgbotapi.NewMessage(chatID, resp.Text)
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send failed: %w", err)
		}
		return nil
	}

	for i := 0; i < totalLen; i += t.messageLimit {
		end := i + t.messageLimit
		if end > totalLen {
			end = totalLen
		}
		msg := tgbotapi.NewMessage(chatID, string(msgRunes[i:end]))
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send chunk failed at index %d: %w", i, err)
		}
	}

	return nil
}

func (t *TelegramChannel) Stop() error {
	t.stopCancel()

	if httpClient, ok := t.bot.Client.(*http.Client); ok && httpClient != nil {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}

	return nil
}
