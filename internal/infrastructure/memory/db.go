package memory

import (
	"sync"

	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

type priceKey struct {
	tenantID  string
	storeID   string
	variantID string
}

// state datos guardados por valor: clonar los mapas basta para tomar una instantánea.
type state struct {
	stores        map[string]entity.Store
	variants      map[string]entity.ProductVariant
	prices        map[priceKey]entity.StorePrice
	movements     []entity.Movement
	levels        map[entity.BalanceKey]decimal.Decimal
	sales         map[string]entity.Sale
	saleLines     []entity.SaleLine
	transfers     map[string]entity.Transfer
	transferLines []entity.TransferLine
}

func newState() *state {
	return &state{
		stores:    map[string]entity.Store{},
		variants:  map[string]entity.ProductVariant{},
		prices:    map[priceKey]entity.StorePrice{},
		levels:    map[entity.BalanceKey]decimal.Decimal{},
		sales:     map[string]entity.Sale{},
		transfers: map[string]entity.Transfer{},
	}
}

func (s *state) clone() *state {
	c := &state{
		stores:        make(map[string]entity.Store, len(s.stores)),
		variants:      make(map[string]entity.ProductVariant, len(s.variants)),
		prices:        make(map[priceKey]entity.StorePrice, len(s.prices)),
		movements:     append([]entity.Movement(nil), s.movements...),
		levels:        make(map[entity.BalanceKey]decimal.Decimal, len(s.levels)),
		sales:         make(map[string]entity.Sale, len(s.sales)),
		saleLines:     append([]entity.SaleLine(nil), s.saleLines...),
		transfers:     make(map[string]entity.Transfer, len(s.transfers)),
		transferLines: append([]entity.TransferLine(nil), s.transferLines...),
	}
	for k, v := range s.stores {
		c.stores[k] = v
	}
	for k, v := range s.variants {
		c.variants[k] = v
	}
	for k, v := range s.prices {
		c.prices[k] = v
	}
	for k, v := range s.levels {
		c.levels[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.transfers {
		c.transfers[k] = v
	}
	return c
}

// DB almacenamiento en memoria con la misma semántica transaccional que Postgres:
// una transacción a la vez (serializable) y rollback por restauración de instantánea.
type DB struct {
	mu    sync.Mutex
	state *state
}

// NewDB crea una base vacía.
func NewDB() *DB {
	return &DB{state: newState()}
}

// AddStore registra una tienda (directorio externo al ledger).
func (db *DB) AddStore(s entity.Store) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.stores[s.ID] = s
}

// AddVariant registra una variante de producto.
func (db *DB) AddVariant(v entity.ProductVariant) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.variants[v.ID] = v
}

// SetStorePrice registra o reemplaza el override de precio de una tienda.
func (db *DB) SetStorePrice(p entity.StorePrice) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.prices[priceKey{p.TenantID, p.StoreID, p.VariantID}] = p
}

// Movements copia del libro completo en orden de inserción.
func (db *DB) Movements() []entity.Movement {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]entity.Movement(nil), db.state.movements...)
}

// StockLevel valor de la proyección materializada de una llave.
func (db *DB) StockLevel(key entity.BalanceKey) decimal.Decimal {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.levels[key]
}
