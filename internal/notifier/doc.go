// Package notifier renders and delivers command outcome notifications.
//
// # Contract
//
// The Dispatcher:
//  1. Looks up the webhook URL and embed template for the outcome key in the
//     current config snapshot; if either is missing the notification is
//     silently skipped ("outcome not configured")
//  2. Renders the template's text fields, substituting the placeholder set
//     (%player%, %command%, %mention%, %group%, %world%, %x%, %y%, %z%;
//     %error% always becomes empty) — rendering is pure
//  3. Builds the embed envelope, cascading unset template fields to the
//     global embed defaults
//  4. Enqueues the envelope on the webhook sender and returns immediately
//
// Delivery is fire-and-forget: the WebhookSender's worker pool performs a
// single POST per notification, logs failures (HTTP >= 400 including the
// response body when readable), and never retries. Nothing on the delivery
// path can block the caller.
package notifier
