// Package audio plays incoming-call ringtones and runs the ringing session:
// one looping ringtone, one vibration waveform and one screen-off listener,
// replaced or torn down together.
//
// Ringtones play through the beep library when it is available (WAV, OGG
// and MP3, looping) or through paplay/aplay otherwise (single pass).
package audio
