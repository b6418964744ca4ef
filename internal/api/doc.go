// Package api handles incoming HTTP requests: request decoding and
// validation, calls into the review, card, import and account services,
// and response formatting. Errors are mapped to status codes by their
// domain kind and never leak internal details to clients.
package api
