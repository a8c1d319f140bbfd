package parameter

import "time"

// Audio output
const (
	AudioSampleRate = 44100

	// AudioBufferDuration determines latency of the speaker
	AudioBufferDuration = 50 * time.Millisecond
)

// Audio pools, fixed when the audio system is built
const (
	// AudioMaxVoices is the number of sounds that may play at once
	AudioMaxVoices = 32

	// AudioMaxTriggers is the number of distinct sounds that may be registered
	AudioMaxTriggers = 128
)

// Spark sound used by the audio trigger feature when none is configured
const (
	SparkSoundFreq     = 1320.0
	SparkSoundDuration = 60 * time.Millisecond
	SparkSoundAttack   = 2 * time.Millisecond
	SparkSoundRelease  = 40 * time.Millisecond
	SparkSoundVolume   = 0.2
)
