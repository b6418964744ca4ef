// Package leitner implements the Leitner box scheduling policy.
//
// A card sits in one of N boxes. Each rating moves it between boxes:
// again resets to box 1, hard moves down one box, good moves up one and
// easy moves up two, always clamped to [1, N]. The box a card lands in
// selects its next review interval from a configurable, strictly
// increasing table.
//
// All functions are pure: the current time is passed in by the caller and
// inputs are never mutated.
package leitner
