// Package beep synthesizes the four audible dictation cues: recording
// started, recording stopped, transcript ready, backend error. Tones are
// generated in memory; playback is fire-and-forget and silently degrades
// when no audio device is available.
package beep

var disabled bool

func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Start cue: high pitch, short tick
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Stop cue: medium pitch, slightly longer
	stopFreq   = 900
	stopVolume = 0.5
	stopDecay  = 40

	// Done cue: rising two-tone chime for a finished transcript
	doneLowFreq  = 880
	doneHighFreq = 1320
	doneVolume   = 0.5
	doneDecay    = 25

	// Error cue: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)
