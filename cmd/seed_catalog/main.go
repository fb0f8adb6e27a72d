// seed_catalog carga tiendas, variantes y precios por tienda desde un CSV en PostgreSQL.
// Las tiendas y variantes que ya existen se omiten; los precios se reemplazan.
//
// Uso: go run ./cmd/seed_catalog -tenant <company_id> [-encoding latin1] catalogo.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/retail-ledger/internal/infrastructure/catalog"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/retail-ledger/pkg/config"
)

func main() {
	tenant := flag.String("tenant", "", "tenant (company_id) dueño del catálogo")
	encoding := flag.String("encoding", catalog.EncodingUTF8, "utf-8 | latin1 | windows-1252")
	flag.Parse()
	if *tenant == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed_catalog -tenant <company_id> [-encoding latin1] archivo.csv")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	cat, err := catalog.Parse(f, *tenant, *encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	sum, err := postgres.ImportCatalog(ctx, pool, cat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Importar: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Catálogo importado: %d tiendas, %d variantes, %d precios (%d omitidos)\n",
		sum.Stores, sum.Variants, sum.Prices, sum.Skipped)
}
