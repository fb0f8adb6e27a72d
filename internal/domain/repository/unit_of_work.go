package repository

// UnitOfWork agrupa los repositorios atados a una misma transacción.
// Lo abre el llamador externo (TxRunner) y los servicios internos solo lo reutilizan.
type UnitOfWork interface {
	Movements() MovementRepository
	Balances() BalanceRepository
	Stores() StoreRepository
	Variants() VariantRepository
	Prices() PriceRepository
	Sales() SaleRepository
	Transfers() TransferRepository
}
