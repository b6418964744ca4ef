// Package events decouples services from the background task subsystem.
//
// Services emit a TaskRequestEvent (for example when a user asks for AI
// proposals on an import session); handlers registered with an EventEmitter
// turn the event into work. The import service therefore never imports the
// task package.
package events
