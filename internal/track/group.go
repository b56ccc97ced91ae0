// Package track implements the in-memory track cache: ordered group/object
// accumulation with opportunistic, time-based eviction. Grounded on
// original_source/aiomoqt/messages/track.py's Group/Track dataclasses
// (SortedDict-keyed groups/objects, max_obj_id/max_grp_id monotonicity),
// reimplemented over github.com/google/btree — the ordered-map library the
// pack itself reaches for (encoredev-encore's gcsemu memstore) — in place
// of Python's sortedcontainers.SortedDict.
package track

import (
	"errors"

	"github.com/google/btree"

	"github.com/zsiec/moqt/internal/protocol"
)

// ErrGroupClosed is returned by AddObject once a group has received an
// END_OF_GROUP status object: the group is terminated and the stream that
// tries to insert into it further is in violation.
var ErrGroupClosed = errors.New("track: group closed by END_OF_GROUP")

// Object is one cached object: either a normal payload or a status marker
// (DOES_NOT_EXIST, END_OF_GROUP, END_OF_TRACK, END_OF_SUBGROUP).
type Object struct {
	ObjectID uint64
	Status   protocol.ObjectStatus
	Payload  []byte
}

type objectItem struct {
	id  uint64
	obj *Object
}

func (a objectItem) Less(than btree.Item) bool {
	return a.id < than.(objectItem).id
}

// Group accumulates the objects of one track group, keyed by object_id.
type Group struct {
	GroupID    uint64
	objects    *btree.BTree
	maxObjID   uint64
	hasObjects bool
	closed     bool
}

func newGroup(id uint64) *Group {
	return &Group{GroupID: id, objects: btree.New(16)}
}

// AddObject inserts or replaces an object. Insertion order does not matter:
// a later out-of-order insert still lands at the correct position. Once an
// END_OF_GROUP status object has been added, the group is closed and any
// further AddObject call fails with ErrGroupClosed.
func (g *Group) AddObject(obj *Object) error {
	if g.closed {
		return ErrGroupClosed
	}

	g.objects.ReplaceOrInsert(objectItem{id: obj.ObjectID, obj: obj})

	if !g.hasObjects || obj.ObjectID > g.maxObjID {
		g.maxObjID = obj.ObjectID
		g.hasObjects = true
	}

	if obj.Status == protocol.StatusEndOfGroup {
		g.closed = true
	}
	return nil
}

// Closed reports whether this group has received an END_OF_GROUP status
// object and no longer accepts inserts.
func (g *Group) Closed() bool {
	return g.closed
}

// Object returns the object with the given id, if cached.
func (g *Group) Object(id uint64) (*Object, bool) {
	item := g.objects.Get(objectItem{id: id})
	if item == nil {
		return nil, false
	}
	return item.(objectItem).obj, true
}

// MaxObjectID returns the largest object_id seen in this group.
func (g *Group) MaxObjectID() (uint64, bool) {
	return g.maxObjID, g.hasObjects
}

// Len reports how many objects are cached in this group.
func (g *Group) Len() int {
	return g.objects.Len()
}

// Range returns the cached objects whose ids fall within [start, end],
// in ascending order, skipping any ids that were never inserted.
func (g *Group) Range(start, end uint64) []*Object {
	var out []*Object
	g.objects.AscendRange(objectItem{id: start}, objectItem{id: end + 1}, func(item btree.Item) bool {
		out = append(out, item.(objectItem).obj)
		return true
	})
	return out
}
