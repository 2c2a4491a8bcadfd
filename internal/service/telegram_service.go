package service

import (
	"hotdesk/internal/domain"
	"hotdesk/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramService прячет конструирование tgbotapi-сообщений от остального
// кода: промпты согласующим, личные уведомления, правки старых промптов.
type TelegramService struct {
	bot domain.TelegramSender
}

func NewTelegramService(bot domain.TelegramSender) *TelegramService {
	return &TelegramService{bot: bot}
}

func (t *TelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return t.bot.Send(c)
}

func (t *TelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	return t.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (t *TelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	return t.bot.Send(msg)
}

// SendWithInlineKeyboard отправляет промпт с кнопками решения.
func (t *TelegramService) SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return t.bot.Send(msg)
}

// EditMessage обновляет текст промпта; nil keyboard убирает кнопки.
func (t *TelegramService) EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	var edit tgbotapi.EditMessageTextConfig
	if keyboard != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *keyboard)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	edit.ParseMode = models.ParseModeMarkdown
	return t.bot.Send(edit)
}

func (t *TelegramService) AnswerCallback(callbackID, text string) error {
	_, err := t.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (t *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return t.bot.GetUpdatesChan(config)
}

func (t *TelegramService) GetSelf() tgbotapi.User {
	return t.bot.GetSelf()
}

func (t *TelegramService) StopReceivingUpdates() {
	t.bot.StopReceivingUpdates()
}
