// Package requestid assigns every HTTP request an id and makes it available
// to handlers and log records.
//
// Incoming X-Request-ID values are kept when they are at most 128 characters
// of letters, digits, '-' and '_'; anything else is replaced by a fresh UUID.
package requestid
