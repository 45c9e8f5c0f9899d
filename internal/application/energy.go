package application

// energyWindow is the number of recent frame energies averaged for the
// dynamic silence threshold.
const energyWindow = 10

// EnergyTracker keeps a rolling window of the last few frame energies so the
// endpointer can adapt its silence threshold to the speaker's recent
// loudness. Not safe for concurrent use; it is only touched from the frame
// processing path.
type EnergyTracker struct {
	history [energyWindow]float64
	size    int
	head    int
}

func NewEnergyTracker() *EnergyTracker {
	return &EnergyTracker{}
}

// Observe records the energy of one frame, evicting the oldest entry once
// the window is full, and returns the current average.
func (t *EnergyTracker) Observe(frame []float32) float64 {
	t.history[t.head] = FrameEnergy(frame)
	t.head = (t.head + 1) % energyWindow
	if t.size < energyWindow {
		t.size++
	}
	return t.Average()
}

// Average returns the mean of the recorded energies, or 0 when empty.
func (t *EnergyTracker) Average() float64 {
	if t.size == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < t.size; i++ {
		sum += t.history[i]
	}
	return sum / float64(t.size)
}

// Reset clears the history. Called when a new recording starts.
func (t *EnergyTracker) Reset() {
	t.size = 0
	t.head = 0
}

// FrameEnergy is the mean absolute amplitude of a frame.
func FrameEnergy(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		if s < 0 {
			s = -s
		}
		sum += float64(s)
	}
	return sum / float64(len(frame))
}
