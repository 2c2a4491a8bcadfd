package bot

import (
	"errors"

	"hotdesk/internal/database"
)

func getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, database.ErrNotPending) {
		return "⚠️ Заявка уже рассмотрена."
	}

	if errors.Is(err, database.ErrNotCurrentResponder) {
		return "⚠️ Эта заявка закреплена за другим согласующим."
	}

	if errors.Is(err, database.ErrRequestNotFound) {
		return "⚠️ Заявка не найдена."
	}

	if errors.Is(err, database.ErrMissingReason) {
		return "⚠️ Нужно указать причину."
	}

	if errors.Is(err, database.ErrForbidden) {
		return "⚠️ Действие недоступно."
	}

	return "❌ Произошла ошибка при обработке. Пожалуйста, попробуйте позже."
}
