// Package service contains the application use cases of lexibox: card
// management, the import and proposal pipeline, statistics and user settings.
//
// Services orchestrate the stores defined in internal/store and the domain
// types, own the transaction boundaries of multi-step operations and apply
// the store retry policy. The review loop itself lives in
// internal/service/card_review and token handling in internal/service/auth.
//
// Every time-sensitive operation takes the current instant as a parameter so
// expiry and scheduling decisions are made against one injected clock.
package service
