package platform

// Package platform contains OS and external tooling glue: download directory
// resolution, output file lookup, binary probes, hardware encoder detection
// and playlist listing.
