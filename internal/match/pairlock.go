package match

import "sync"

const pairLockShards = 256

// pairLocks serializes all mutations touching one unordered user pair. Both
// directions of a like hash to the same shard, which is what makes the
// mutual-like check race-free.
type pairLocks struct {
    shards [pairLockShards]sync.Mutex
}

func newPairLocks() *pairLocks {
    return &pairLocks{}
}

// Lock acquires the shard for the unordered (a, b) pair and returns the
// unlock function.
func (p *pairLocks) Lock(a, b int64) func() {
    if a > b {
        a, b = b, a
    }
    shard := &p.shards[uint64(a*31+b)%pairLockShards]
    shard.Lock()
    return shard.Unlock
}
