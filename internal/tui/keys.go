package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Enter     key.Binding
	Back      key.Binding
	Select    key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Unread    key.Binding
	Search    key.Binding
	Refresh   key.Binding
	Draft     key.Binding
	AddTag    key.Binding
	RemoveTag key.Binding
	BulkDraft key.Binding
	Preview   key.Binding
	Sync      key.Binding
	Delete    key.Binding
	Release   key.Binding
	Spam      key.Binding
	ListFlag  key.Binding
	Role      key.Binding
	Active    key.Binding
	Shorter   key.Binding
	Longer    key.Binding
	Tab       key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Select:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
	NextPage:  key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "next page")),
	PrevPage:  key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p", "prev page")),
	Unread:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unread only")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Refresh:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
	Draft:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "draft")),
	AddTag:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tag")),
	RemoveTag: key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "untag")),
	BulkDraft: key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "bulk draft")),
	Preview:   key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "bulk send")),
	Sync:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
	Delete:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete")),
	Release:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "release")),
	Spam:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "spam")),
	ListFlag:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "allow/block list")),
	Role:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "toggle role")),
	Active:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle active")),
	Shorter:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "shorter period")),
	Longer:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "longer period")),
	Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
