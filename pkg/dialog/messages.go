package dialog

const (
	msgWelcome          = "Добро пожаловать! Используйте команду /add_shipment для добавления новой отгрузки."
	msgSendShipment     = "Пожалуйста, отправьте информацию о отгрузке в виде текста или голосового сообщения."
	msgUseAddShipment   = "Для добавления новой отгрузки используйте команду /add_shipment."
	msgRecognizing      = "Распознаю голосовое сообщение..."
	msgVoiceFailed      = "Не удалось распознать голосовое сообщение. Пожалуйста, отправьте текст вручную или попробуйте снова."
	msgParseFailed      = "Не удалось разобрать информацию о отгрузке. Пожалуйста, проверьте формат и попробуйте снова."
	msgSaved            = "Отгрузка сохранена с ID: %s"
	msgSaveFailed       = "Не удалось сохранить отгрузку. Пожалуйста, попробуйте ещё раз."
	msgAllProcessed     = "Все отгрузки обработаны."
	msgWhatNext         = "Что вы хотите сделать дальше?"
	msgChooseNext       = "Пожалуйста, выберите один из предложенных вариантов."
	msgChooseConfirm    = "Пожалуйста, выберите 'Сохранить' или 'Исправить'."
	msgWhichField       = "Какое поле вы хотите исправить?"
	msgEnterValue       = "Введите новое значение для '%s':"
	msgInvalidField     = "Некорректное поле. Пожалуйста, выберите из предложенных вариантов."
	msgFieldUpdated     = "Поле '%s' обновлено на '%s'."
	msgEnterProcurement = "Пожалуйста, введите '%s':"
	msgProcurementAdded = "Закупка успешно добавлена."
	msgTextExpected     = "Пожалуйста, отправьте ответ текстом."
	msgEmptyMessage     = "Сообщение пустое. " + msgSendShipment
	msgUnknownCommand   = "Неизвестная команда. " + msgUseAddShipment

	msgSummaryHeader      = "Сводка по грузополучателям:"
	msgSummaryLine        = "%s: отгрузок %d, сумма %s"
	msgSummaryUnparsed    = " (без суммы: %d)"
	msgSummaryEmpty       = "Сохранённых отгрузок пока нет."
	msgSummaryFailed      = "Не удалось получить сводку. Пожалуйста, попробуйте позже."
	msgSummaryUnavailable = "Сводка недоступна для выбранного хранилища."
	msgNoCustomer         = "(не указан)"
)

// Accepted spellings of the confirmation answers, lower case.
var (
	acceptAnswers = []string{"сохранить", "да"}
	rejectAnswers = []string{"исправить", "нет"}
)
