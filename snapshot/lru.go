package snapshot

import "container/list"

// LRUCache wraps a Store and caches raw entries on reads with LRU eviction.
// Like the frame/state machinery it fronts, it is owned by one simulation
// pass at a time and is not locked.
type LRUCache struct {
	underlying Store
	cache      map[Hash]*list.Element
	evictList  *list.List
	maxSize    int
	hits       int
	misses     int
}

type cacheEntry struct {
	hash  Hash
	value []byte
}

// NewLRUCache wraps underlying with a read cache of at most maxSize entries
// (0 or negative picks a default).
func NewLRUCache(underlying Store, maxSize int) *LRUCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &LRUCache{
		underlying: underlying,
		cache:      make(map[Hash]*list.Element),
		evictList:  list.New(),
		maxSize:    maxSize,
	}
}

func (l *LRUCache) Put(item Serde) (Hash, error) {
	return l.underlying.Put(item)
}

func (l *LRUCache) Has(hash Hash) bool {
	return l.underlying.Has(hash)
}

func (l *LRUCache) Get(hash Hash) (bool, []byte, error) {
	if elem, ok := l.cache[hash]; ok {
		l.evictList.MoveToFront(elem)
		l.hits++
		return true, elem.Value.(*cacheEntry).value, nil
	}
	l.misses++
	ok, data, err := l.underlying.Get(hash)
	if err != nil || !ok {
		return ok, data, err
	}
	l.add(hash, data)
	return true, data, nil
}

func (l *LRUCache) add(hash Hash, data []byte) {
	elem := l.evictList.PushFront(&cacheEntry{hash: hash, value: data})
	l.cache[hash] = elem
	for l.evictList.Len() > l.maxSize {
		oldest := l.evictList.Back()
		l.evictList.Remove(oldest)
		delete(l.cache, oldest.Value.(*cacheEntry).hash)
	}
}

// Stats reports cache occupancy and effectiveness.
type Stats struct {
	Size   int
	Hits   int
	Misses int
}

func (l *LRUCache) Stats() Stats {
	return Stats{
		Size:   l.evictList.Len(),
		Hits:   l.hits,
		Misses: l.misses,
	}
}
