package dispatch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	greetingText     = "Привет! Твой chat_id: %d"
	openAppPrompt    = "Нажми кнопку, чтобы войти в приложение:"
	openAppButton    = "Войти"
	fallbackText     = "Произошла ошибка. Попробуйте позже."
	shareCaption     = "Отсканируй код, чтобы открыть приложение."
	matchText        = "У вас взаимная симпатия! Открой приложение, чтобы посмотреть."
	matchButton      = "Открыть"
	shareQRSize      = 256
	shareQRFileName  = "share.png"
	commandStart     = "start"
	commandShare     = "share"
	chatIDQueryParam = "chat_id"
)

type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendWebAppButton(ctx context.Context, chatID int64, text, buttonText, url string) error
	SendPhoto(ctx context.Context, chatID int64, fileName string, data []byte, caption string) error
}

type UpdateHandler func(ctx context.Context, update tgbotapi.Update)

// Dispatcher routes bot updates to command handlers. One value is built per
// process and shared by the polling and webhook paths.
type Dispatcher struct {
	sender    Sender
	webAppURL string
	log       *zap.Logger
	unhandled UpdateHandler
}

func NewDispatcher(sender Sender, webAppURL string, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		sender:    sender,
		webAppURL: strings.TrimSpace(webAppURL),
		log:       log,
	}
	d.unhandled = d.logUnhandled
	return d
}

// SetFallthrough replaces the handler for updates that are not known
// commands. Nil restores the default debug log.
func (d *Dispatcher) SetFallthrough(h UpdateHandler) {
	if h == nil {
		d.unhandled = d.logUnhandled
		return
	}
	d.unhandled = h
}

func (d *Dispatcher) Dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() || msg.Chat == nil {
		d.unhandled(ctx, update)
		return
	}

	switch msg.Command() {
	case commandStart:
		d.handleStart(ctx, msg.Chat.ID)
	case commandShare:
		d.handleShare(ctx, msg.Chat.ID)
	default:
		d.unhandled(ctx, update)
	}
}

// NotifyMatch tells both users about a new mutual like.
func (d *Dispatcher) NotifyMatch(ctx context.Context, chatA, chatB int64) error {
	if d.sender == nil {
		return fmt.Errorf("bot sender is nil")
	}

	var firstErr error
	for _, chatID := range []int64{chatA, chatB} {
		link, err := d.webAppLink(chatID)
		if err == nil {
			err = d.sender.SendWebAppButton(ctx, chatID, matchText, matchButton, link)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("notify chat %d: %w", chatID, err)
		}
	}
	return firstErr
}

func (d *Dispatcher) handleStart(ctx context.Context, chatID int64) {
	if d.sender == nil {
		d.log.Error("start command without bot sender", zap.Int64("chat_id", chatID))
		return
	}

	err := d.sender.SendText(ctx, chatID, fmt.Sprintf(greetingText, chatID))
	if err == nil {
		var link string
		link, err = d.webAppLink(chatID)
		if err == nil {
			err = d.sender.SendWebAppButton(ctx, chatID, openAppPrompt, openAppButton, link)
		}
	}
	if err != nil {
		d.fail(ctx, chatID, "start", err)
	}
}

func (d *Dispatcher) handleShare(ctx context.Context, chatID int64) {
	if d.sender == nil {
		d.log.Error("share command without bot sender", zap.Int64("chat_id", chatID))
		return
	}

	png, err := d.shareQR()
	if err == nil {
		err = d.sender.SendPhoto(ctx, chatID, shareQRFileName, png, shareCaption)
	}
	if err != nil {
		d.fail(ctx, chatID, "share", err)
	}
}

func (d *Dispatcher) shareQR() ([]byte, error) {
	if d.webAppURL == "" {
		return nil, fmt.Errorf("web app url is not configured")
	}
	png, err := qrcode.Encode(d.webAppURL, qrcode.Medium, shareQRSize)
	if err != nil {
		return nil, fmt.Errorf("encode share qr: %w", err)
	}
	return png, nil
}

func (d *Dispatcher) webAppLink(chatID int64) (string, error) {
	if d.webAppURL == "" {
		return "", fmt.Errorf("web app url is not configured")
	}
	u, err := url.Parse(d.webAppURL)
	if err != nil {
		return "", fmt.Errorf("parse web app url: %w", err)
	}
	q := u.Query()
	q.Set(chatIDQueryParam, strconv.FormatInt(chatID, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *Dispatcher) fail(ctx context.Context, chatID int64, command string, cause error) {
	d.log.Error("bot command failed",
		zap.String("command", command),
		zap.Int64("chat_id", chatID),
		zap.Error(cause),
	)
	if err := d.sender.SendText(ctx, chatID, fallbackText); err != nil {
		d.log.Warn("send fallback message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (d *Dispatcher) logUnhandled(_ context.Context, update tgbotapi.Update) {
	d.log.Debug("unhandled telegram update", zap.Int("update_id", update.UpdateID))
}
