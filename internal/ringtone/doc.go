// Package ringtone resolves a requested ringtone name to a playable resource.
// Names are looked up among bundled ringtones first, then the bundled default,
// then the desktop sound theme's incoming-call sound, and finally any sound
// in the system ringtone list.
package ringtone
