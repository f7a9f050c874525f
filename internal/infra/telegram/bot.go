package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	api *tgbotapi.BotAPI
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type inlineButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app,omitempty"`
	URL    string      `json:"url,omitempty"`
}

type webAppInfo struct {
	URL string `json:"url"`
}

// NewBot checks the token with getMe. A nil client falls back to
// http.DefaultClient.
func NewBot(token string, client *http.Client) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if client == nil {
		client = http.DefaultClient
	}

	api, err := tgbotapi.NewBotAPIWithClient(strings.TrimSpace(token), tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{api: api}, nil
}

// Listen long-polls updates and hands each one to handle until ctx is done.
func (b *Bot) Listen(ctx context.Context, timeout int, handle func(context.Context, tgbotapi.Update)) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if handle == nil {
		return fmt.Errorf("update handler is nil")
	}
	if timeout <= 0 {
		timeout = 30
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = timeout
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			handle(ctx, update)
		}
	}
}

// DeleteWebhook must run before polling; Telegram refuses getUpdates while a
// webhook is registered.
func (b *Bot) DeleteWebhook(ctx context.Context) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete telegram webhook: %w", err)
	}
	_ = ctx
	return nil
}

func (b *Bot) SetWebhook(ctx context.Context, url, secret string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("webhook url is empty")
	}

	params := tgbotapi.Params{}
	params["url"] = url
	params.AddNonEmpty("secret_token", secret)
	if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set telegram webhook: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return nil
}

// SendWebAppButton sends text with a single inline button that opens url as
// a Telegram Mini App. The keyboard is marshalled by hand because the library
// release has no web_app button type.
func (b *Bot) SendWebAppButton(ctx context.Context, chatID int64, text, buttonText, url string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params["text"] = text
	markup := inlineKeyboard{InlineKeyboard: [][]inlineButton{{
		{Text: buttonText, WebApp: &webAppInfo{URL: url}},
	}}}
	if err := params.AddInterface("reply_markup", markup); err != nil {
		return fmt.Errorf("encode web app keyboard: %w", err)
	}

	if _, err := b.api.MakeRequest("sendMessage", params); err != nil {
		return fmt.Errorf("send web app button: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) SendPhoto(ctx context.Context, chatID int64, fileName string, data []byte, caption string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		return fmt.Errorf("send telegram photo: %w", err)
	}

	_ = ctx
	return nil
}
