// Package sanitizer provides input normalization for customer data arriving
// from the conversation driver.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings rather than errors.
//
// Normalization includes:
//   - Phone numbers: E.164 format, plus the digits-only form used as the
//     customer partition key across every collection
//   - Names and labels: collapse whitespace, trim, lowercase
package sanitizer
