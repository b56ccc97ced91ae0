package track

import (
	"time"

	"github.com/google/btree"

	"github.com/zsiec/moqt/internal/wire"
)

type groupItem struct {
	id uint64
	g  *Group
}

func (a groupItem) Less(than btree.Item) bool {
	return a.id < than.(groupItem).id
}

// Track is the live cache for one (namespace, track_name) pair: an ordered
// map of group_id → Group, plus opportunistic time-based eviction keyed by
// MAX_CACHE_DURATION. Cache mutation happens only from the owning session's
// single task, so Track carries no internal locking.
type Track struct {
	Namespace wire.Namespace
	TrackName string

	groups     *btree.BTree
	lastUpdate map[uint64]time.Time
	maxGroupID uint64
	hasGroups  bool

	maxCacheDuration time.Duration // 0 means no eviction
}

// New returns an empty track cache for namespace/trackName.
func New(namespace wire.Namespace, trackName string) *Track {
	return &Track{
		Namespace:  namespace,
		TrackName:  trackName,
		groups:     btree.New(16),
		lastUpdate: make(map[uint64]time.Time),
	}
}

// SetMaxCacheDuration installs the eviction window (0 disables eviction).
// The session runtime passes its Config.MaxCacheDuration here.
func (t *Track) SetMaxCacheDuration(d time.Duration) {
	t.maxCacheDuration = d
}

// Group returns the group for id, creating it if absent.
func (t *Track) Group(id uint64) *Group {
	item := t.groups.Get(groupItem{id: id})
	var g *Group
	if item == nil {
		g = newGroup(id)
		t.groups.ReplaceOrInsert(groupItem{id: id, g: g})
	} else {
		g = item.(groupItem).g
	}
	if !t.hasGroups || id > t.maxGroupID {
		t.maxGroupID = id
		t.hasGroups = true
	}
	return g
}

// GroupIfExists returns the group for id without creating it.
func (t *Track) GroupIfExists(id uint64) (*Group, bool) {
	item := t.groups.Get(groupItem{id: id})
	if item == nil {
		return nil, false
	}
	return item.(groupItem).g, true
}

// MaxGroupID returns the largest group_id ever created in this track.
func (t *Track) MaxGroupID() (uint64, bool) {
	return t.maxGroupID, t.hasGroups
}

// Insert inserts (group_id, object_id, payload|status) into the cache and
// runs opportunistic eviction against the current time. It returns
// ErrGroupClosed if groupID already received an END_OF_GROUP status object.
func (t *Track) Insert(obj *Object, groupID uint64, now time.Time) error {
	if err := t.Group(groupID).AddObject(obj); err != nil {
		return err
	}
	t.lastUpdate[groupID] = now
	t.evict(now)
	return nil
}

// Largest reports the largest (group_id, object_id) pair cached, used to
// populate SUBSCRIBE_OK's content_exists/largest_group/largest_object and
// TRACK_STATUS's last_group/last_object.
func (t *Track) Largest() (groupID, objectID uint64, exists bool) {
	var found bool
	t.groups.Descend(func(item btree.Item) bool {
		g := item.(groupItem).g
		if max, ok := g.MaxObjectID(); ok {
			groupID, objectID, found = g.GroupID, max, true
			return false
		}
		return true
	})
	return groupID, objectID, found
}

// evict drops groups whose last activity is older than maxCacheDuration.
// It runs inline on every insert rather than on a timer goroutine, so
// eviction never blocks on its own I/O.
func (t *Track) evict(now time.Time) {
	if t.maxCacheDuration <= 0 {
		return
	}
	var stale []uint64
	t.groups.Ascend(func(item btree.Item) bool {
		id := item.(groupItem).id
		if now.Sub(t.lastUpdate[id]) > t.maxCacheDuration {
			stale = append(stale, id)
		}
		return true
	})
	for _, id := range stale {
		t.groups.Delete(groupItem{id: id})
		delete(t.lastUpdate, id)
	}
}
