package process

// Package process starts external tools, streams their output line by line and
// keeps the task id to process mapping used to kill, suspend and resume them.
