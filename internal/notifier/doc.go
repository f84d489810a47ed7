// Package notifier turns form submissions into HTML messages for the admin
// chat.
//
// # Delivery
//
// Each call makes exactly one send attempt through a kit.Sender (the
// Telegram adapter in production). There is no queue and no retry. A failed
// attempt is logged and reported in the returned Result; it never surfaces
// as a panic or an error return, so HTTP callers can treat every call as
// "accepted and attempted".
//
// # Formatting
//
// Absent fields are replaced by a localized placeholder and every submitted
// value is HTML-escaped before it is placed into the template.
package notifier
