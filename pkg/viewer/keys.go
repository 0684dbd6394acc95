package viewer

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the viewer's bindings. List keys only apply while no form
// or confirmation is open.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Export  key.Binding
	Quit    key.Binding

	// Form.
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Cancel    key.Binding

	// Delete confirmation.
	Confirm key.Binding
	Dismiss key.Binding
}

var DefaultKeyMap = KeyMap{
	Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "cima")),
	Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "baixo")),
	New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "agendar")),
	Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "editar")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remover")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "atualizar")),
	Export:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "exportar")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "sair")),

	NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "próximo campo")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("S-tab", "campo anterior")),
	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "salvar")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancelar")),

	Confirm: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirmar")),
	Dismiss: key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancelar")),
}

func (k KeyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.New, k.Edit, k.Delete, k.Refresh, k.Export, k.Quit}
}

func (k KeyMap) formHelp() []key.Binding {
	return []key.Binding{k.NextField, k.PrevField, k.Submit, k.Cancel}
}

func (k KeyMap) confirmHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Dismiss}
}
