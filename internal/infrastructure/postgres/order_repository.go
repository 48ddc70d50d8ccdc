package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, customer, warehouse_id, status, created_at, updated_at, completed_at`

// Create inserta el pedido y sus líneas.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.Customer, o.WarehouseID, o.Status, o.CreatedAt, o.UpdatedAt, o.CompletedAt,
	)
	if err != nil {
		return mapWriteError("insert order", err)
	}
	return r.insertItems(ctx, o.ID, o.Items)
}

// GetByID obtiene el pedido con sus líneas; (nil, nil) si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila del pedido (SELECT FOR UPDATE).
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) get(ctx context.Context, query, id string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapReadError("get order", err)
	}
	items, err := r.itemsOf(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// Update guarda cliente, estado y fechas (no las líneas).
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	query := `
		UPDATE orders SET customer = $2, status = $3, updated_at = $4, completed_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, o.ID, o.Customer, o.Status, o.UpdatedAt, o.CompletedAt)
	if err != nil {
		return mapWriteError("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el pedido; las líneas caen por ON DELETE CASCADE.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return mapDeleteError("delete order", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReplaceItems borra las líneas del pedido e inserta las nuevas.
func (r *OrderRepo) ReplaceItems(ctx context.Context, orderID string, items []entity.OrderItem) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return mapDeleteError("delete order items", err)
	}
	return r.insertItems(ctx, orderID, items)
}

// List pedidos más recientes primero, con sus líneas.
func (r *OrderRepo) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, int, error) {
	where := ""
	var args []any
	if f.Status != "" {
		where = " WHERE status = $1"
		args = append(args, f.Status)
	}

	var total int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	var (
		list []*entity.Order
		ids  []string
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		list = append(list, o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return list, total, nil
	}

	items, err := r.itemsOf(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, o := range list {
		o.Items = items[o.ID]
	}
	return list, total, nil
}

func (r *OrderRepo) insertItems(ctx context.Context, orderID string, items []entity.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`INSERT INTO order_items (id, order_id, product_id, count) VALUES ($1, $2, $3, $4)`,
			it.ID, orderID, it.ProductID, it.Count)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return mapWriteError("insert order item", err)
		}
	}
	return nil
}

func (r *OrderRepo) itemsOf(ctx context.Context, orderIDs []string) (map[string][]entity.OrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, product_id, count
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, product_id, id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]entity.OrderItem, len(orderIDs))
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Count); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	if err := row.Scan(&o.ID, &o.Customer, &o.WarehouseID, &o.Status, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
