// Package collab implements the realtime collaboration core: live session
// tracking, per-chart rooms, and event fan-out to room members. A single hub
// goroutine serializes all membership changes and broadcast resolutions;
// each connection gets a dedicated writer goroutine with a bounded buffer.
package collab
