package server

import (
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/boltengine"
	"github.com/OneSizeFitsQuorum/PracticalNetworkedApplications/internal/engine"
)

// kvsStore adapts *engine.Engine to the Store interface; Clone must return a
// Store rather than a concrete *engine.Engine for the method sets to match.
type kvsStore struct{ *engine.Engine }

func WrapLogStructured(e *engine.Engine) Store { return kvsStore{e} }

func (s kvsStore) Clone() Store { return kvsStore{s.Engine.Clone()} }

// boltStore adapts *boltengine.Engine to the Store interface.
type boltStore struct{ *boltengine.Engine }

func WrapBolt(e *boltengine.Engine) Store { return boltStore{e} }

func (s boltStore) Clone() Store { return boltStore{s.Engine.Clone()} }
