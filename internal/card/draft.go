package card

import (
	"fmt"
	"sync"
)

// Draft holds the card currently being edited. Every read hands out a deep
// copy and every write swaps in a fresh copy, so callers never share slices
// with the displayed state. Concurrent writers race on which result lands
// last; nothing is merged.
type Draft struct {
	mu      sync.RWMutex
	current Card
}

// NewDraft starts a draft from c, or from NewCard when c is nil.
func NewDraft(c *Card) *Draft {
	d := &Draft{current: NewCard()}
	if c != nil {
		d.current = c.Clone()
	}
	return d
}

// Snapshot returns a deep copy of the current card.
func (d *Draft) Snapshot() Card {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current.Clone()
}

// Replace swaps the whole card, as a full generation does.
func (d *Draft) Replace(c Card) {
	next := c.Clone()
	d.mu.Lock()
	d.current = next
	d.mu.Unlock()
}

// Apply runs fn against a copy of the current card and stores the result
// unless fn returns an error, in which case the draft is left untouched.
func (d *Draft) Apply(fn func(c *Card) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.current.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	d.current = next
	return nil
}

// AddWeapon appends an empty weapon and returns its index.
func (d *Draft) AddWeapon() int {
	var idx int
	_ = d.Apply(func(c *Card) error {
		c.Weapons = append(c.Weapons, Weapon{})
		idx = len(c.Weapons) - 1
		return nil
	})
	return idx
}

// SetWeapon replaces the weapon at i.
func (d *Draft) SetWeapon(i int, w Weapon) error {
	return d.Apply(func(c *Card) error {
		if i < 0 || i >= len(c.Weapons) {
			return fmt.Errorf("weapon index %d out of range", i)
		}
		c.Weapons[i] = w
		return nil
	})
}

// RemoveWeapon deletes the weapon at i.
func (d *Draft) RemoveWeapon(i int) error {
	return d.Apply(func(c *Card) error {
		if i < 0 || i >= len(c.Weapons) {
			return fmt.Errorf("weapon index %d out of range", i)
		}
		c.Weapons = append(c.Weapons[:i], c.Weapons[i+1:]...)
		return nil
	})
}

// AddAbility appends an ability and returns its index. New abilities start
// passive at zero cost.
func (d *Draft) AddAbility() int {
	var idx int
	_ = d.Apply(func(c *Card) error {
		c.Abilities = append(c.Abilities, Ability{Passive: true})
		idx = len(c.Abilities) - 1
		return nil
	})
	return idx
}

// SetAbility replaces the ability at i.
func (d *Draft) SetAbility(i int, a Ability) error {
	return d.Apply(func(c *Card) error {
		if i < 0 || i >= len(c.Abilities) {
			return fmt.Errorf("ability index %d out of range", i)
		}
		c.Abilities[i] = a
		return nil
	})
}

// RemoveAbility deletes the ability at i.
func (d *Draft) RemoveAbility(i int) error {
	return d.Apply(func(c *Card) error {
		if i < 0 || i >= len(c.Abilities) {
			return fmt.Errorf("ability index %d out of range", i)
		}
		c.Abilities = append(c.Abilities[:i], c.Abilities[i+1:]...)
		return nil
	})
}
