// Package tgui provides small Telegram UI helpers:
//   - HTML escaping for ParseMode="HTML"
//   - Inline keyboard builders (URL and Mini App buttons)
//   - A line-oriented message builder with sensible defaults
package tgui
