package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramAPI is the part of tgbotapi.BotAPI the bot uses, so tests can fake it
type TelegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetSelf() tgbotapi.User
}

// botAPIWrapper wraps tgbotapi.BotAPI to implement TelegramAPI
type botAPIWrapper struct {
	api *tgbotapi.BotAPI
}

// NewAPI logs in with the bot token
func NewAPI(token string) (TelegramAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &botAPIWrapper{api: api}, nil
}

func (w *botAPIWrapper) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return w.api.GetUpdatesChan(config)
}

func (w *botAPIWrapper) StopReceivingUpdates() {
	w.api.StopReceivingUpdates()
}

func (w *botAPIWrapper) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return w.api.Send(c)
}

func (w *botAPIWrapper) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return w.api.Request(c)
}

func (w *botAPIWrapper) GetSelf() tgbotapi.User {
	return w.api.Self
}
