package hostfs

import "sync"

// CachingIdentity decorates an Identity so that repeated UserName/GroupName
// lookups for the same id return the same string without re-querying the
// OS. It is the only internally-mutable state in the host interface
// besides the writer's own streaming cursor and dedup maps.
//
// The cache is per-instance, not global: each archive writer constructs
// its own CachingIdentity, so caches from distinct writers never share
// state.
type CachingIdentity struct {
	Identity

	mu     sync.Mutex
	users  map[uint32]string
	groups map[uint32]string
}

// NewCachingIdentity wraps id with a per-id name cache.
func NewCachingIdentity(id Identity) *CachingIdentity {
	return &CachingIdentity{
		Identity: id,
		users:    make(map[uint32]string),
		groups:   make(map[uint32]string),
	}
}

func (c *CachingIdentity) UserName(uid uint32) (string, error) {
	c.mu.Lock()
	if name, ok := c.users[uid]; ok {
		c.mu.Unlock()
		return name, nil
	}
	c.mu.Unlock()

	name, err := c.Identity.UserName(uid)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.users[uid] = name
	c.mu.Unlock()
	return name, nil
}

func (c *CachingIdentity) GroupName(gid uint32) (string, error) {
	c.mu.Lock()
	if name, ok := c.groups[gid]; ok {
		c.mu.Unlock()
		return name, nil
	}
	c.mu.Unlock()

	name, err := c.Identity.GroupName(gid)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.groups[gid] = name
	c.mu.Unlock()
	return name, nil
}
