// Package alerts evaluates threshold rules against every host snapshot and
// delivers notifications to Slack, Teams or generic HTTP webhooks.
//
// A rule fires when its condition holds, at most once per cooldown, and
// resolves on the first snapshot where it no longer holds. Rules can be
// replaced at runtime with SetRules.
package alerts
