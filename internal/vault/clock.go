package vault

import "time"

// Clock abstracts the monotonic timestamp source used for tranche gating.
type Clock interface {
	Now() int64 // unix seconds
}

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

func SystemClock() Clock { return systemClock{} }
