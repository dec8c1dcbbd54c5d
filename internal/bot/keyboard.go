package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackYes      = "yes"
	callbackNo       = "no"
	callbackContinue = "continue"
	callbackSets     = "sets"
	callbackStats    = "stats"
	callbackPractice = "practice:"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

func mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📚 Sets", CallbackData: callbackSets},
			{Text: "📊 Statistics", CallbackData: callbackStats},
		},
	}
}

func confirmButtons() [][]MenuButton {
	return [][]MenuButton{{
		{Text: "Yes", CallbackData: callbackYes},
		{Text: "No", CallbackData: callbackNo},
	}}
}

func continueButtons() [][]MenuButton {
	return [][]MenuButton{{{Text: "Continue", CallbackData: callbackContinue}}}
}

// setButtons puts one practice button per set, two per row
func setButtons(names []string) [][]MenuButton {
	var rows [][]MenuButton
	for i := 0; i < len(names); i += 2 {
		row := []MenuButton{{Text: names[i], CallbackData: callbackPractice + names[i]}}
		if i+1 < len(names) {
			row = append(row, MenuButton{Text: names[i+1], CallbackData: callbackPractice + names[i+1]})
		}
		rows = append(rows, row)
	}
	return rows
}
