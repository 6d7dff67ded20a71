package state

import (
	"github.com/sidereusnuntius/portal/internal/config"
	"github.com/sidereusnuntius/portal/internal/db"
	"github.com/sidereusnuntius/portal/internal/storage"
)

// State holds the backends chosen by configuration. Accounts always live in DB; Docs is DB itself with the
// sqlite document backend, or a Firestore store.
type State struct {
	DB     db.DB
	Docs   db.Documents
	Store  storage.Storage
	Config config.Configuration
}
