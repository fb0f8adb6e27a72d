package transfers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/application/inventory"
	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/retail-ledger/internal/domain/inventory"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
	"github.com/jhoicas/retail-ledger/pkg/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TransferService ejecuta traslados multi-línea entre tiendas en una sola transacción,
// guardando por línea los saldos antes/después de ambas tiendas para auditoría.
type TransferService struct {
	txRunner TxRunner
	stock    StockMutator
	log      zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewTransferService construye el servicio.
func NewTransferService(txRunner TxRunner, stock StockMutator, log zerolog.Logger) *TransferService {
	return &TransferService{
		txRunner: txRunner,
		stock:    stock,
		log:      log,
		tracer:   telemetry.Tracer(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateAndExecuteTransfer crea la cabecera y ejecuta cada línea. Un faltante en la línea k
// revierte también las líneas 1..k-1.
func (s *TransferService) CreateAndExecuteTransfer(ctx context.Context, actor entity.Actor, in dto.CreateTransferRequest) (resp *dto.TransferResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "transfers.CreateAndExecuteTransfer", trace.WithAttributes(
		attribute.String("transfer.from_store", in.FromStoreID),
		attribute.String("transfer.to_store", in.ToStoreID),
		attribute.Int("transfer.lines", len(in.Lines)),
	))
	defer func() { telemetry.End(span, err) }()

	if err = actor.Validate(); err != nil {
		return nil, err
	}
	if in.FromStoreID == in.ToStoreID {
		return nil, domain.ErrSameSourceAndTarget
	}
	if len(in.Lines) == 0 {
		return nil, domain.ErrMustHaveLines
	}
	for _, l := range in.Lines {
		if l.VariantID == "" {
			return nil, fmt.Errorf("%w: variant_id requerido", domain.ErrInvalidInput)
		}
		if !domaininv.ValidQuantity(l.Quantity) {
			return nil, domain.ErrInvalidQuantity
		}
	}

	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		for _, id := range []string{in.FromStoreID, in.ToStoreID} {
			store, err := uow.Stores().GetByID(ctx, actor.TenantID, id)
			if err != nil {
				return err
			}
			if store == nil {
				return domain.NewNotFound("store", id)
			}
		}

		now := s.now()
		transfer := &entity.Transfer{
			ID:          uuid.New().String(),
			TenantID:    actor.TenantID,
			FromStoreID: in.FromStoreID,
			ToStoreID:   in.ToStoreID,
			Status:      entity.TransferStatusCompleted,
			Note:        in.Note,
			CreatedAt:   now,
			CreatedBy:   actor.UserID,
		}
		transfer.Reference = "TRANSFER:" + transfer.ID
		// La cabecera va primero para que las líneas la referencien.
		if err := uow.Transfers().Create(ctx, transfer); err != nil {
			return err
		}

		// Cada variante distinta se resuelve una sola vez.
		variants := map[string]*entity.ProductVariant{}
		keys := make([]entity.BalanceKey, 0, 2*len(in.Lines))
		for _, l := range in.Lines {
			if _, ok := variants[l.VariantID]; ok {
				continue
			}
			v, err := uow.Variants().GetByID(ctx, actor.TenantID, l.VariantID)
			if err != nil {
				return err
			}
			if v == nil {
				return domain.NewNotFound("variant", l.VariantID)
			}
			variants[l.VariantID] = v
			keys = append(keys,
				entity.BalanceKey{TenantID: actor.TenantID, StoreID: in.FromStoreID, VariantID: l.VariantID},
				entity.BalanceKey{TenantID: actor.TenantID, StoreID: in.ToStoreID, VariantID: l.VariantID},
			)
		}
		if err := uow.Balances().Lock(ctx, keys...); err != nil {
			return err
		}

		lines := make([]*entity.TransferLine, 0, len(in.Lines))
		for _, l := range in.Lines {
			fromKey := entity.BalanceKey{TenantID: actor.TenantID, StoreID: in.FromStoreID, VariantID: l.VariantID}
			toKey := entity.BalanceKey{TenantID: actor.TenantID, StoreID: in.ToStoreID, VariantID: l.VariantID}
			fromBefore, err := uow.Balances().Balance(ctx, fromKey)
			if err != nil {
				return err
			}
			toBefore, err := uow.Balances().Balance(ctx, toKey)
			if err != nil {
				return err
			}

			if _, err := s.stock.TransferInTx(ctx, uow, actor, inventory.TransferInput{
				FromStoreID: in.FromStoreID,
				ToStoreID:   in.ToStoreID,
				VariantID:   l.VariantID,
				Quantity:    l.Quantity,
				Reference:   transfer.Reference,
			}); err != nil {
				return err
			}

			// Saldos después calculados, no re-consultados: deben coincidir con lo que escribió la mutación.
			line := &entity.TransferLine{
				ID:         uuid.New().String(),
				TransferID: transfer.ID,
				TenantID:   actor.TenantID,
				VariantID:  l.VariantID,
				Quantity:   l.Quantity,
				FromBefore: fromBefore,
				FromAfter:  fromBefore.Sub(l.Quantity),
				ToBefore:   toBefore,
				ToAfter:    toBefore.Add(l.Quantity),
				CreatedAt:  now,
			}
			if err := uow.Transfers().CreateLine(ctx, line); err != nil {
				return err
			}
			lines = append(lines, line)
		}
		resp = toResponse(transfer, lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("tenant_id", actor.TenantID).
		Str("transfer_id", resp.ID).
		Str("from_store_id", resp.FromStoreID).
		Str("to_store_id", resp.ToStoreID).
		Int("lines", len(resp.Lines)).
		Msg("traslado ejecutado")
	return resp, nil
}

// GetTransfer devuelve el traslado con sus snapshots.
func (s *TransferService) GetTransfer(ctx context.Context, actor entity.Actor, id string) (resp *dto.TransferResponse, err error) {
	if err = actor.Validate(); err != nil {
		return nil, err
	}
	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		t, err := uow.Transfers().GetByID(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NewNotFound("transfer", id)
		}
		lines, err := uow.Transfers().ListLines(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		resp = toResponse(t, lines)
		return nil
	})
	return resp, err
}

func toResponse(t *entity.Transfer, lines []*entity.TransferLine) *dto.TransferResponse {
	resp := &dto.TransferResponse{
		ID:          t.ID,
		FromStoreID: t.FromStoreID,
		ToStoreID:   t.ToStoreID,
		Status:      t.Status,
		Note:        t.Note,
		Reference:   t.Reference,
		CreatedAt:   t.CreatedAt,
		CreatedBy:   t.CreatedBy,
		Lines:       make([]dto.TransferLineResponse, 0, len(lines)),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.TransferLineResponse{
			ID:         l.ID,
			VariantID:  l.VariantID,
			Quantity:   l.Quantity,
			FromBefore: l.FromBefore,
			FromAfter:  l.FromAfter,
			ToBefore:   l.ToBefore,
			ToAfter:    l.ToAfter,
		})
	}
	return resp
}
