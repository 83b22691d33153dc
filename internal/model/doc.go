package model

// Package model defines domain data structures shared across the engine:
// download and compression tasks, per-task download options, the closed
// enums for format, codec and hardware class, and playlist entities.
