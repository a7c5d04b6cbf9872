// Package tts speaks replies through espeak-ng. Synthesis is synchronous
// from the caller's point of view; the session treats failures as
// non-fatal and only logs them.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

int
steve_say(const char *text, int rate)
{
	if (!text)
	{ return -1; }

	espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
	espeak_VOICE specs = { .languages = "en" };
	espeak_SetVoiceByProperties(&specs);
	if (rate > 0)
	{ espeak_SetParameter(espeakRATE, rate, 0); }

	espeak_Synth(text, 500, 0, 0, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

type Speaker struct {
	rate int // words per minute; 0 keeps the engine default
}

func NewSpeaker(rate int) *Speaker {
	return &Speaker{rate: rate}
}

func (s *Speaker) Speak(text string) error {
	if text == "" {
		return nil
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	if rc := C.steve_say(ctext, C.int(s.rate)); rc != 0 {
		return fmt.Errorf("espeak synthesis failed: %d", int(rc))
	}
	return nil
}
