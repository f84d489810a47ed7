package notifier

import (
	"hacktaika/internal/submission"
	"hacktaika/pkg/tgui"
)

// Placeholders for absent values. Russian "not specified" agrees with the
// grammatical gender of each field.
const (
	notSetNeuter    = "Не указано"
	notSetMasculine = "Не указан"
	notSetFeminine  = "Не указана"
	noMessage       = "Без сообщения"
)

// RenderBasic formats an order submission for the admin chat.
func RenderBasic(b submission.Basic) tgui.Message {
	return tgui.New().
		Title("🔔", "Новая заявка!").
		Blank().
		Field("👤", "Имя", b.Name.Or(notSetNeuter)).
		Field("📧", "Email", b.Email.Or(notSetMasculine)).
		Field("📞", "Телефон", b.Phone.Or(notSetMasculine)).
		Field("💬", "Telegram", b.Telegram.Or(notSetMasculine)).
		Blank().
		Label("📝", "Сообщение").
		Line(b.Message.Or(noMessage)).
		Blank().
		Field("⏰", "Время", b.CreatedAt.Or(notSetNeuter)).
		Build()
}

// RenderDetailed formats a project application for the admin chat.
// The additional info section is present only when the field is.
func RenderDetailed(d submission.Detailed) tgui.Message {
	mb := tgui.New().
		Title("🎯", "Новая подробная заявка!").
		Blank().
		Section("📋", "КОНТАКТНЫЕ ДАННЫЕ").
		Field("👤", "Имя", d.FullName.Or(notSetNeuter)).
		Field("📧", "Email", d.Email.Or(notSetMasculine)).
		Field("📞", "Телефон", d.Phone.Or(notSetMasculine)).
		Field("💬", "Telegram", d.Telegram.Or(notSetMasculine)).
		Blank().
		Section("💼", "О ПРОЕКТЕ").
		Field("🏷", "Тип", d.ProjectType.Or(notSetMasculine)).
		Field("🎯", "Проблема", d.ProjectProblem.Or(notSetFeminine)).
		Field("👥", "Аудитория", d.TargetAudience.Or(notSetFeminine)).
		Blank().
		Section("💰", "БЮДЖЕТ И СРОКИ").
		Field("💵", "Бюджет", d.Budget.Or(notSetMasculine)).
		Field("⏱", "Дедлайн", d.Deadline.Or(notSetMasculine)).
		Blank().
		Section("📝", "ОПИСАНИЕ").
		Line(d.Description.Or(notSetNeuter))

	if d.AdditionalInfo.Present() {
		mb.Blank().
			Section("ℹ️", "ДОПОЛНИТЕЛЬНО").
			Line(d.AdditionalInfo.Or(""))
	}

	return mb.Blank().
		Field("⏰", "Время", d.CreatedAt.Or(notSetNeuter)).
		Build()
}
