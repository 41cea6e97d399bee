package store

import (
	"proofroom.app/engine/core/db"
)

type Stores struct {
	db *db.DB
}

func NewStores(database *db.DB) *Stores {
	return &Stores{db: database}
}

func (s *Stores) Messages() MessageStore {
	return newMessageStore(s.db)
}

func (s *Stores) Rooms() RoomStore {
	return newRoomStore(s.db)
}
