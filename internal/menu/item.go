package menu

// Item is one entry of a context menu tree. Submenu is built lazily when the
// entry is opened.
type Item struct {
	Name     string
	Checked  bool
	Disabled bool
	Spacer   bool
	Action   func() error
	Submenu  func() []*Item
}

// Spacer returns a separator entry.
func Spacer() *Item {
	return &Item{Spacer: true}
}

// Children expands the submenu, or returns nil for a leaf.
func (i *Item) Children() []*Item {
	if i == nil || i.Submenu == nil {
		return nil
	}
	return i.Submenu()
}

// Find returns the first direct child named name.
func (i *Item) Find(name string) *Item {
	for _, c := range i.Children() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
