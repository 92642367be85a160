// Package audio selects the audio stream an ingest run will extract.
package audio
