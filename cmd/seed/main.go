// seed carga datos de ejemplo: productos (desde CSV o una lista por defecto), bodegas y un
// stock inicial aleatorio (10–100) por producto y bodega. El stock se registra con ajustes
// del ledger, así cada unidad tiene su movimiento.
//
// Uso: go run ./cmd/seed [-products productos.csv] [-charset windows-1251] [-warehouses "Central,Norte"]
// El CSV tiene cabecera name,price.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/usecase"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockflow-api/pkg/config"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

var defaultProducts = []dto.CreateProductRequest{
	{Name: "Черный чай", Price: decimal.RequireFromString("150.50")},
	{Name: "Зеленый чай", Price: decimal.RequireFromString("22.8")},
	{Name: "Café molido 500 g", Price: decimal.RequireFromString("18900")},
	{Name: "Azúcar morena 1 kg", Price: decimal.RequireFromString("4200")},
}

func main() {
	productsPath := flag.String("products", "", "CSV de productos (name,price); vacío usa la lista por defecto")
	charset := flag.String("charset", "utf-8", "codificación del CSV: utf-8 | windows-1251 | windows-1252 | iso-8859-1")
	warehouseNames := flag.String("warehouses", "Bodega Central,Bodega Norte", "bodegas a crear, separadas por coma")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	products := defaultProducts
	if *productsPath != "" {
		f, err := os.Open(*productsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("abrir CSV")
		}
		products, err = readProductsCSV(f, *charset)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("leer CSV")
		}
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if _, err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	productRepo := postgres.NewProductRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	productUC := usecase.NewProductUseCase(productRepo, postgres.NewStockRepository(pool), warehouseRepo)
	warehouseUC := usecase.NewWarehouseUseCase(warehouseRepo)
	stockUC := inventory.NewStockUseCase(
		postgres.NewTxRunner(pool, cfg.DB.LockTimeout), inventory.NewLedger(),
		postgres.NewStockRepository(pool), postgres.NewMovementRepository(pool),
		productRepo, warehouseRepo,
	)

	var warehouseIDs []string
	for _, name := range strings.Split(*warehouseNames, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		w, err := warehouseUC.Create(ctx, dto.CreateWarehouseRequest{Name: name})
		if err != nil {
			log.Fatal().Err(err).Str("warehouse", name).Msg("crear bodega")
		}
		warehouseIDs = append(warehouseIDs, w.ID)
	}

	var units int64
	for _, in := range products {
		p, err := productUC.Create(ctx, in)
		if err != nil {
			log.Fatal().Err(err).Str("product", in.Name).Msg("crear producto")
		}
		for _, wID := range warehouseIDs {
			qty := int64(rand.Intn(91) + 10)
			if _, err := stockUC.AdjustStock(ctx, dto.AdjustStockRequest{
				ProductID:   p.ID,
				WarehouseID: wID,
				Quantity:    qty,
				Type:        entity.MovementTypeIncrease,
			}); err != nil {
				log.Fatal().Err(err).Str("product", p.ID).Str("warehouse", wID).Msg("stock inicial")
			}
			units += qty
		}
	}

	log.Info().
		Int("products", len(products)).
		Int("warehouses", len(warehouseIDs)).
		Int64("units", units).
		Msg("seed completado")
}

// readProductsCSV lee name,price desde r decodificando el charset indicado.
// Las filas con nombre vacío se omiten; un precio inválido es error.
func readProductsCSV(r io.Reader, charset string) ([]dto.CreateProductRequest, error) {
	src, err := decodeCharset(r, charset)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var out []dto.CreateProductRequest
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("línea %d: se esperaban 2 columnas, hay %d", line, len(rec))
		}
		name := strings.TrimSpace(rec[0])
		if name == "" {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("línea %d: precio %q: %w", line, rec[1], err)
		}
		out = append(out, dto.CreateProductRequest{Name: name, Price: price})
	}
	return out, nil
}

func decodeCharset(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1251", "cp1251":
		return transform.NewReader(r, charmap.Windows1251.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado: %q", charset)
	}
}
