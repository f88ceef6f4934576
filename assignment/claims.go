package assignment

import "github.com/nstehr/vimy/vimy-tactics/model"

// Claims records which subsystem currently holds the pool of a unit type.
// It is a plain ownership check, not a lock: callers ask before acting.
type Claims struct {
	holders map[string]string // base type → owner
}

func NewClaims() *Claims {
	return &Claims{holders: make(map[string]string)}
}

// Claim takes unitType for owner. It fails if another owner holds it.
func (c *Claims) Claim(unitType, owner string) bool {
	t := model.BaseType(unitType)
	if cur, ok := c.holders[t]; ok && cur != owner {
		return false
	}
	c.holders[t] = owner
	return true
}

// Release gives up unitType if owner holds it.
func (c *Claims) Release(unitType, owner string) {
	t := model.BaseType(unitType)
	if c.holders[t] == owner {
		delete(c.holders, t)
	}
}

// HeldElsewhere reports whether someone other than owner holds unitType.
func (c *Claims) HeldElsewhere(unitType, owner string) bool {
	cur, ok := c.holders[model.BaseType(unitType)]
	return ok && cur != owner
}
