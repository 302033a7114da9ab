package qpack

// Entries in the dynamic table are accounted with an overhead of 32
// bytes on top of the name and value lengths (RFC 9204, Section 3.2.1).
// The overhead is also the minimum entry size, which makes
// maxEntries = maxCapacity / 32 the largest possible entry count.
const entrySizeOverhead = 32

func entrySize(name, value string) uint64 {
	return uint64(len(name)) + uint64(len(value)) + entrySizeOverhead
}

type matchType uint8

const (
	matchNone matchType = iota
	matchName
	matchNameAndValue
)

type nameValueKey struct {
	name  string
	value string
}

// A headerTable is the combined view of the immutable static table and
// one direction's dynamic table. Dynamic entries are identified by their
// absolute index: the n-th entry ever inserted has index n-1, no matter
// how many entries have been evicted since.
type headerTable struct {
	// Dynamic entries in insertion order. The entry with absolute index
	// i, if still present, is entries[i-droppedCount].
	entries      []HeaderField
	droppedCount uint64
	size         uint64
	capacity     uint64

	maxCapacity    uint64
	hasMaxCapacity bool
	maxEntries     uint64

	// The most recent dynamic entry for each name-value pair and each
	// name. Older duplicates are superseded; a mapping disappears when
	// the entry it points at is evicted.
	index     map[nameValueKey]uint64
	nameIndex map[string]uint64

	blocked blockedRegistry
}

func newHeaderTable() *headerTable {
	return &headerTable{
		index:     make(map[nameValueKey]uint64),
		nameIndex: make(map[string]uint64),
	}
}

// insertedCount is the total number of entries ever inserted, and one
// more than the absolute index of the newest entry.
func (t *headerTable) insertedCount() uint64 {
	return t.droppedCount + uint64(len(t.entries))
}

// lookupEntry returns the entry at the given index. Dynamic entries are
// addressed by absolute index; the lookup fails for entries that have
// been evicted or not yet inserted.
func (t *headerTable) lookupEntry(isStatic bool, index uint64) (HeaderField, bool) {
	if isStatic {
		if index >= uint64(len(staticTableEntries)) {
			return HeaderField{}, false
		}
		return staticTableEntries[index], true
	}
	if index < t.droppedCount || index >= t.insertedCount() {
		return HeaderField{}, false
	}
	return t.entries[index-t.droppedCount], true
}

// findHeaderField looks for the best reference for the given field: an
// exact match is preferred over a name-only match, and the static table
// over the dynamic table.
func (t *headerTable) findHeaderField(name, value string) (matchType, bool, uint64) {
	iv, inStatic := encoderMap[name]
	if inStatic {
		if iv.values == nil {
			if value == "" {
				return matchNameAndValue, true, uint64(iv.idx)
			}
		} else if idx, ok := iv.values[value]; ok {
			return matchNameAndValue, true, uint64(idx)
		}
	}
	if idx, ok := t.index[nameValueKey{name, value}]; ok {
		return matchNameAndValue, false, idx
	}
	if inStatic {
		return matchName, true, uint64(iv.idx)
	}
	if idx, ok := t.nameIndex[name]; ok {
		return matchName, false, idx
	}
	return matchNone, false, 0
}

// insertEntry adds an entry at the end of the dynamic table, evicting
// the oldest entries as needed, and returns its absolute index. The
// caller must have checked that the entry fits the capacity at all;
// violating that is a programming error.
func (t *headerTable) insertEntry(name, value string) uint64 {
	size := entrySize(name, value)
	if size > t.capacity {
		panic("qpack: inserted entry larger than dynamic table capacity")
	}
	index := t.insertedCount()
	t.evictDownToCapacity(t.capacity - size)
	t.entries = append(t.entries, HeaderField{Name: name, Value: value})
	t.size += size
	t.index[nameValueKey{name, value}] = index
	t.nameIndex[name] = index
	return index
}

// entryFitsDynamicTableCapacity reports whether the entry could be
// inserted if everything else were evicted first.
func (t *headerTable) entryFitsDynamicTableCapacity(name, value string) bool {
	return entrySize(name, value) <= t.capacity
}

// setDynamicTableCapacity updates the capacity, evicting entries if it
// shrinks. It fails if capacity exceeds the maximum.
func (t *headerTable) setDynamicTableCapacity(capacity uint64) bool {
	if capacity > t.maxCapacity {
		return false
	}
	t.capacity = capacity
	t.evictDownToCapacity(capacity)
	return true
}

// setMaximumDynamicTableCapacity fixes the upper bound for the dynamic
// table capacity. It can be set only once; repeated calls succeed only
// if the value is unchanged.
func (t *headerTable) setMaximumDynamicTableCapacity(maxCapacity uint64) bool {
	if t.hasMaxCapacity {
		return maxCapacity == t.maxCapacity
	}
	t.hasMaxCapacity = true
	t.maxCapacity = maxCapacity
	t.maxEntries = maxCapacity / entrySizeOverhead
	return true
}

// drainingIndex returns the smallest absolute index an encoder should
// still reference. Older entries occupy the oldest fraction of the
// table and are about to be evicted; referencing them would keep them
// alive and stall the table.
func (t *headerTable) drainingIndex(fraction float64) uint64 {
	requiredSpace := uint64(fraction * float64(t.capacity))
	spaceAboveDrainingIndex := t.capacity - t.size
	if len(t.entries) == 0 || spaceAboveDrainingIndex >= requiredSpace {
		return t.droppedCount
	}
	index := t.droppedCount
	for _, entry := range t.entries {
		if spaceAboveDrainingIndex >= requiredSpace {
			break
		}
		spaceAboveDrainingIndex += entrySize(entry.Name, entry.Value)
		index++
	}
	return index
}

// maxInsertSizeWithoutEvicting returns the largest entry size that can
// be inserted without evicting the entry at the given index or any newer
// entry. An index of at least insertedCount protects nothing.
func (t *headerTable) maxInsertSizeWithoutEvicting(index uint64) uint64 {
	if index >= t.insertedCount() {
		return t.capacity
	}
	maxInsertSize := t.capacity - t.size
	for i, entry := range t.entries {
		if t.droppedCount+uint64(i) >= index {
			break
		}
		maxInsertSize += entrySize(entry.Name, entry.Value)
	}
	return maxInsertSize
}

func (t *headerTable) evictDownToCapacity(capacity uint64) {
	for t.size > capacity {
		entry := t.entries[0]
		index := t.droppedCount
		t.size -= entrySize(entry.Name, entry.Value)
		t.entries = t.entries[1:]
		t.droppedCount++
		// Remove search mappings only if they still point at the evicted
		// entry; newer duplicates stay reachable.
		key := nameValueKey{entry.Name, entry.Value}
		if t.index[key] == index {
			delete(t.index, key)
		}
		if t.nameIndex[entry.Name] == index {
			delete(t.nameIndex, entry.Name)
		}
	}
}

// registerObserver arranges for obs to be returned by readyObservers
// once insertedCount reaches requiredInsertCount.
func (t *headerTable) registerObserver(requiredInsertCount uint64, obs blockedStreamObserver) {
	t.blocked.register(requiredInsertCount, obs)
}

func (t *headerTable) unregisterObserver(requiredInsertCount uint64, obs blockedStreamObserver) {
	t.blocked.unregister(requiredInsertCount, obs)
}

// readyObservers removes and returns, in ascending requirement order,
// all observers whose requirement has been reached.
func (t *headerTable) readyObservers() []blockedStreamObserver {
	return t.blocked.collectReady(t.insertedCount())
}
