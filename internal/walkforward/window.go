package walkforward

import "overfit-lab/internal/domain"

// Window is one (train, validation) index pair over a bar series.
// Boundaries are half-open: train is [TrainStart, TrainEnd), validation is
// [TrainEnd, ValidationEnd), with the validation segment directly adjacent.
type Window struct {
	TrainStart    int
	TrainEnd      int
	ValidationEnd int
}

// TrainLength returns the number of train bars, which is also the index at
// which validation begins within the window's concatenated bar slice.
func (w Window) TrainLength() int {
	return w.TrainEnd - w.TrainStart
}

// SliceWindows produces the sequence of fixed-size window pairs obtained by
// sliding forward SlideStep bars until the data is exhausted. Fewer bars
// than one full pair yields an empty slice.
func SliceWindows(numBars int, cfg domain.WalkForwardConfig) []Window {
	var windows []Window

	pairLen := cfg.TrainWindowLength + cfg.ValidationWindowLength
	for start := 0; start+pairLen <= numBars; start += cfg.SlideStep {
		windows = append(windows, Window{
			TrainStart:    start,
			TrainEnd:      start + cfg.TrainWindowLength,
			ValidationEnd: start + pairLen,
		})
	}

	return windows
}
