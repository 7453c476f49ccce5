/*
Package storage persists the last observed maintenance event so a restarted
agent does not drain or undrain the node a second time for an event it has
already handled.

Two backends implement Store:

  - FileStore: a single plain-text file holding NONE or the event name. This
    is the default and is easy to inspect or edit by hand.
  - BoltStore: a bbolt database with one bucket ("maintenance") and one key
    ("last_event"), for hosts that already keep agent state in BoltDB.

Both treat a missing value as types.None. Neither locks across processes;
concurrent writers resolve as last writer wins. MemoryStore is used when
persistence is disabled.
*/
package storage
