package service

import (
	"context"
	"errors"

	"irrigation/entities"
	"irrigation/pkg/form"
)

const (
	MsgCreated       = "Irrigação cadastrada com sucesso!"
	MsgUpdated       = "Irrigação atualizada com sucesso!"
	MsgSaveFailed    = "Erro ao salvar. Tente novamente!"
	MsgDeleted       = "Irrigação removida com sucesso!"
	MsgDeleteFailed  = "Erro ao remover. Tente novamente!"
	MsgNotEditable   = "Só é possível editar irrigações ativas."
	MsgNotDeletable  = "Não é possível remover uma irrigação em execução."
	MsgNotFound      = "Irrigação não encontrada. Atualize a lista."
	MsgRefreshQueued = "Atualizando a lista..."
)

var (
	ErrNotFound     = errors.New("irrigation not found")
	ErrNotEditable  = errors.New("only active irrigations can be edited")
	ErrNotDeletable = errors.New("running irrigations cannot be removed")
	ErrInFlight     = errors.New("same request already in flight")
)

type IrrigationService interface {
	form.Saver

	// Submit validates and sends the form's draft, then records the outcome
	// as a notice and refreshes the feed on success.
	Submit(ctx context.Context, f *form.Form) error
	// Delete removes an irrigation that is not running.
	Delete(ctx context.Context, id string) error
	// Editable returns the item if it may be edited right now.
	Editable(id string) (entities.IrrigationItem, error)
	// Deletable returns the item if it may be removed right now.
	Deletable(id string) (entities.IrrigationItem, error)
	Refresh()
}
