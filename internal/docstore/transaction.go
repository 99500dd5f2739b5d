package docstore

import "context"

type docRef struct {
	collection string
	id         string
}

type pendingWrite struct {
	ref   docRef
	data  Document
	merge bool

	fromRead    bool
	readExists  bool
	readVersion int64
}

type transaction struct {
	store   *sqliteStore
	reads   map[docRef]*Snapshot
	writes  []pendingWrite
	written map[docRef]bool
}

func newTransaction(s *sqliteStore) *transaction {
	return &transaction{
		store:   s,
		reads:   make(map[docRef]*Snapshot),
		written: make(map[docRef]bool),
	}
}

// Get reads through to the store; repeated reads of the same document return
// the first result. The returned data may be mutated freely.
func (t *transaction) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	ref := docRef{collection, id}
	if t.written[ref] {
		return nil, ErrReadAfterWrite
	}
	snap, ok := t.reads[ref]
	if !ok {
		var err error
		snap, err = readSnapshot(ctx, t.store.db, collection, id)
		if err != nil {
			return nil, err
		}
		t.reads[ref] = snap
	}
	out := *snap
	out.Data = Clone(snap.Data)
	return &out, nil
}

func (t *transaction) Set(collection, id string, data Document, opts ...SetOption) {
	ref := docRef{collection, id}
	o := resolveSetOptions(opts)
	w := pendingWrite{ref: ref, data: Clone(data), merge: o.merge}
	if snap, ok := t.reads[ref]; ok {
		w.fromRead = true
		w.readExists = snap.Exists
		w.readVersion = snap.Version
	}
	t.writes = append(t.writes, w)
	t.written[ref] = true
}
