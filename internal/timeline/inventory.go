package timeline

// InventoryCapacity is the number of item slots a player has.
const InventoryCapacity = 7

// EmptySlot pads unused inventory slots in a Snapshot.
const EmptySlot = 0

// Inventory is a player's ordered item list, oldest purchase first.
// It never holds more than InventoryCapacity items.
type Inventory struct {
	items []int
}

// Purchase appends item if a slot is free. A purchase into a full
// inventory is dropped.
func (inv *Inventory) Purchase(item int) {
	if len(inv.items) >= InventoryCapacity {
		return
	}
	inv.items = append(inv.items, item)
}

// Remove drops the earliest occurrence of item. No-op if absent.
func (inv *Inventory) Remove(item int) {
	for i, held := range inv.items {
		if held == item {
			inv.items = append(inv.items[:i], inv.items[i+1:]...)
			return
		}
	}
}

// Undo drops the most recently added item. No-op if empty.
func (inv *Inventory) Undo() {
	if len(inv.items) == 0 {
		return
	}
	inv.items = inv.items[:len(inv.items)-1]
}

// Len returns the number of held items.
func (inv *Inventory) Len() int {
	return len(inv.items)
}

// Items returns a copy of the held items in insertion order.
func (inv *Inventory) Items() []int {
	out := make([]int, len(inv.items))
	copy(out, inv.items)
	return out
}

// Slots returns the items padded with EmptySlot to InventoryCapacity.
func (inv *Inventory) Slots() [InventoryCapacity]int {
	var slots [InventoryCapacity]int
	for i := range slots {
		slots[i] = EmptySlot
	}
	copy(slots[:], inv.items)
	return slots
}
