// Package macro records key sequences into registers and replays them.
//
// Macros are stored as key names, the same names the key feeder consumes,
// so playback goes through the normal command resolution path.
package macro

import (
	"fmt"
	"sort"
	"sync"
)

// Mirror receives recorder state changes. Session state implements it so
// that the resolver sees whether a macro is being recorded.
type Mirror interface {
	SetRecordingMacro(v bool)
	SetLastMacro(reg string)
}

// Recorder records key sequences for macro playback.
type Recorder struct {
	mu         sync.Mutex
	recording  bool
	register   rune
	appending  bool
	keys       []string
	registers  map[rune][]string
	lastPlayed rune
	mirror     Mirror
}

// NewRecorder creates a recorder with empty registers.
func NewRecorder() *Recorder {
	return &Recorder{
		registers: make(map[rune][]string),
	}
}

// SetMirror sets the target of recording state changes.
func (r *Recorder) SetMirror(m Mirror) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mirror = m
	if m != nil {
		m.SetRecordingMacro(r.recording)
	}
}

// StartRecording begins recording into the register named name.
// An uppercase letter appends to the lowercase register.
func (r *Recorder) StartRecording(name string) error {
	raw, ok := parseRegister(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRegister, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("%w: register %c", ErrAlreadyRecording, r.register)
	}

	r.recording = true
	r.register = NormalizeRegister(raw)
	r.appending = IsAppendRegister(raw)
	r.keys = nil
	if r.mirror != nil {
		r.mirror.SetRecordingMacro(true)
	}
	return nil
}

// StopRecording ends the recording and stores it. It returns the recorded
// keys, or nil if nothing was being recorded.
func (r *Recorder) StopRecording() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil
	}
	r.recording = false

	keys := r.keys
	r.keys = nil
	if r.appending {
		r.registers[r.register] = append(r.registers[r.register], keys...)
	} else if len(keys) > 0 {
		saved := make([]string, len(keys))
		copy(saved, keys)
		r.registers[r.register] = saved
	}

	if r.mirror != nil {
		r.mirror.SetRecordingMacro(false)
		r.mirror.SetLastMacro(string(r.register))
	}
	return keys
}

// IsRecording reports whether a recording is in progress.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// CurrentRegister returns the register being recorded, or 0.
func (r *Recorder) CurrentRegister() rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return r.register
	}
	return 0
}

// Record appends key to the recording in progress.
func (r *Recorder) Record(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.keys = append(r.keys, key)
	}
}

// Get returns a copy of the macro in reg.
func (r *Recorder) Get(reg rune) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := r.registers[NormalizeRegister(reg)]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Set replaces the macro in reg. Empty keys clear it.
func (r *Recorder) Set(reg rune, keys []string) error {
	reg = NormalizeRegister(reg)
	if reg == 0 {
		return ErrInvalidRegister
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(keys) == 0 {
		delete(r.registers, reg)
		return nil
	}
	saved := make([]string, len(keys))
	copy(saved, keys)
	r.registers[reg] = saved
	return nil
}

// HasMacro reports whether reg holds a macro.
func (r *Recorder) HasMacro(reg rune) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registers[NormalizeRegister(reg)]) > 0
}

// Registers returns the registers holding macros, sorted.
func (r *Recorder) Registers() []rune {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]rune, 0, len(r.registers))
	for reg, keys := range r.registers {
		if len(keys) > 0 {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetLastPlayed records the last played register for @@.
func (r *Recorder) SetLastPlayed(reg rune) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastPlayed = reg
	if r.mirror != nil {
		r.mirror.SetLastMacro(string(reg))
	}
}

// LastPlayed returns the last played register, or 0.
func (r *Recorder) LastPlayed() rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPlayed
}

func (r *Recorder) snapshot() (map[rune][]string, rune) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[rune][]string, len(r.registers))
	for reg, keys := range r.registers {
		out[reg] = append([]string(nil), keys...)
	}
	return out, r.lastPlayed
}

func (r *Recorder) restore(registers map[rune][]string, last rune) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registers = make(map[rune][]string, len(registers))
	for reg, keys := range registers {
		if IsValidRegister(reg) && len(keys) > 0 {
			r.registers[reg] = append([]string(nil), keys...)
		}
	}
	if IsValidRegister(last) {
		r.lastPlayed = last
	}
}
