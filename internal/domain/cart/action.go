package cart

import "github.com/go-faster/errors"

// Action is a cart mutation. The set of actions is closed: only the types in
// this package implement it.
type Action interface {
	isAction()
}

// AddItem adds Item to the cart.
type AddItem struct {
	Item Item
}

// RemoveItem removes the line item with the given ID.
type RemoveItem struct {
	ID string
}

// ClearCart empties the cart.
type ClearCart struct{}

func (AddItem) isAction()    {}
func (RemoveItem) isAction() {}
func (ClearCart) isAction()  {}

// Apply performs a single action on the cart.
func (c *Cart) Apply(a Action) error {
	switch a := a.(type) {
	case AddItem:
		c.Add(a.Item)
	case RemoveItem:
		c.Remove(a.ID)
	case ClearCart:
		c.Clear()
	default:
		return errors.Errorf("unknown cart action %T", a)
	}
	return nil
}
