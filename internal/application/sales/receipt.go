package sales

import (
	"context"
	"fmt"

	"github.com/jhoicas/retail-ledger/internal/domain/entity"
)

// ReceiptService genera el comprobante PDF de una venta del tenant.
type ReceiptService struct {
	sales     *SaleService
	generator ReceiptGenerator
}

// NewReceiptService construye el caso de uso inyectando sus dependencias.
func NewReceiptService(sales *SaleService, generator ReceiptGenerator) *ReceiptService {
	return &ReceiptService{sales: sales, generator: generator}
}

// DownloadReceipt devuelve (pdfBytes, filename). Las ventas canceladas también se pueden imprimir
// y el generador las marca como anuladas.
func (uc *ReceiptService) DownloadReceipt(ctx context.Context, actor entity.Actor, saleID string) ([]byte, string, error) {
	sale, err := uc.sales.GetSale(ctx, actor, saleID)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := uc.generator.GenerateSaleReceipt(ctx, sale)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("venta_%s.pdf", sale.ID), nil
}
