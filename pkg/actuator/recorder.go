package actuator

import "sync"

// Recorder is a Servo that remembers every angle it was given.
type Recorder struct {
	mu     sync.Mutex
	angles []int
	err    error
}

// SetAngle implements Servo.
func (r *Recorder) SetAngle(angle int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.angles = append(r.angles, angle)
	return r.err
}

// FailWith makes subsequent SetAngle calls return err (nil to clear).
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Angles returns a copy of the recorded angles.
func (r *Recorder) Angles() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.angles...)
}

// Last returns the most recent angle, or -1 if none was recorded.
func (r *Recorder) Last() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.angles) == 0 {
		return -1
	}
	return r.angles[len(r.angles)-1]
}
