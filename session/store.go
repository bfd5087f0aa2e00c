package session

// Slot names under which the token pair is persisted.
const (
	AccessTokenKey  = "enertrack_access"
	RefreshTokenKey = "enertrack_refresh"
)

// Store is a durable keyed string store shared by every session of one
// profile. Implementations must deliver Watch callbacks asynchronously, never
// from inside Set or Delete, and pass the slot's new value ("" once cleared).
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Watch(key string, fn func(value string)) (cancel func(), err error)
}
