// Package webhook is the HTTP listener the website backend calls when a form
// is submitted.
//
// Routes:
//
//	POST /webhook/order        basic contact form
//	POST /webhook/application  detailed project application
//	GET  /health               liveness, no auth
//
// Protected routes require the X-Webhook-Secret header. Every request ends in
// an Outcome, and Outcome.Response is the only mapping to HTTP status codes.
// A delivery failure is still reported to the caller as success.
package webhook
