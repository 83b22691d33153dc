package download

// Package download implements the task registry and queue of the engine. It
// admits tasks up to the configured concurrency, runs the metadata dump and the
// yt-dlp download for each task, and drives the task state machine from
// process output and exit events. Live processes are owned by a
// process.Supervisor; this package only asks it to kill, suspend or resume.
