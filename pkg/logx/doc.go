// Package logx configures structured logging for both the bot and the webhook
// listener.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured and rotated (lumberjack)
//   - An optional Telegram sink (min-level + rate limiting)
package logx
