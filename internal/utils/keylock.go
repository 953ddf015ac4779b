package utils

import (
	"hash/fnv"
	"sync"
)

const keyLockShards = 64

// KeyLock serializes work per string key using a sharded mutex table,
// so two inbound messages for the same chat never race while unrelated
// chats proceed in parallel.
type KeyLock struct {
	shards [keyLockShards]sync.Mutex
}

func NewKeyLock() *KeyLock {
	return &KeyLock{}
}

func (k *KeyLock) shard(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &k.shards[h.Sum32()%keyLockShards]
}

func (k *KeyLock) Lock(key string) {
	k.shard(key).Lock()
}

func (k *KeyLock) Unlock(key string) {
	k.shard(key).Unlock()
}
