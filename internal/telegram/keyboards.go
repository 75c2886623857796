package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shiftbot-backend/internal/models"
	"shiftbot-backend/internal/workflow"
)

const (
	btnShareLocation = "Поделиться геолокацией"
	btnShareContact  = "Поделиться номером"
)

// menuKeyboard renders the main menu for the worker's current shift state.
func menuKeyboard(state models.MenuState) tgbotapi.ReplyKeyboardMarkup {
	var label string
	switch state {
	case models.MenuCanFinish:
		label = workflow.BtnFinishShift
	case models.MenuInProgressOnly:
		label = workflow.BtnShiftRunning
	default:
		label = workflow.BtnStartShift
	}
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(label)),
	)
	kb.ResizeKeyboard = true
	return kb
}

// choicesKeyboard lays out free-form option buttons. Short option sets share
// one row; longer ones (the vehicle catalog) get a row each so the labels
// stay readable.
func choicesKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	if len(options) <= 2 {
		row := make([]tgbotapi.KeyboardButton, 0, len(options))
		for _, opt := range options {
			row = append(row, tgbotapi.NewKeyboardButton(opt))
		}
		rows = append(rows, row)
	} else {
		for _, opt := range options {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(opt)))
		}
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func locationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(btnShareLocation)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(btnShareContact)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
