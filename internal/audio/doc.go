// Package audio plays a chime when a status bar shows a new message.
// It uses the beep library to play WAV, OGG, and MP3 files with volume
// control and one sound per severity.
package audio
