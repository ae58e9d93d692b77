package copylock

import "sync"

type journal struct {
	mu      sync.Mutex
	entries []string
}

func snapshot(j *journal) {
	// копирование мьютекса
	cp := *j // want "assignment copies lock value to cp: copylock.journal contains sync.Mutex"
	_ = cp
}
