// Package voice renders dates, times, numbers, money, durations and lists
// as locale-correct spoken phrases for the conversation driver.
//
// Supported locales are "es" and "en". Every function is pure and safe for
// concurrent use. Unknown locales render as English so the caller always
// gets a speakable string.
package voice
