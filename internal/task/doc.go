// Package task manages background job queuing, processing, and lifecycle.
// It runs slow work such as AI proposal generation outside the HTTP request
// path, persists every task so it survives restarts, and rebuilds recovered
// tasks through constructors registered per task type.
package task
