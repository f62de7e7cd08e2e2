package workshop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/platform/db"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
)

// TxRepository exposes everything a workshop mutation touches inside one
// transaction.
type TxRepository interface {
	stock.TxStore
	catalog.TxStore

	InsertOrder(ctx context.Context, o Order) (Order, error)
	// LockOrder reads the order FOR UPDATE. ErrOrderNotFound when absent.
	LockOrder(ctx context.Context, id int64) (Order, error)
	SaveOrder(ctx context.Context, o Order) (Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	InsertMaterial(ctx context.Context, m Material) (Material, error)
	InsertPayout(ctx context.Context, p Payout) (Payout, error)
	// InsertClosure fails with ErrOrderClosed when the order already has one.
	InsertClosure(ctx context.Context, c Closure) (Closure, error)

	InsertEmployee(ctx context.Context, e Employee) (Employee, error)
	// LockEmployee reads the employee FOR UPDATE. ErrEmployeeNotFound when absent.
	LockEmployee(ctx context.Context, id int64) (Employee, error)
	SaveEmployee(ctx context.Context, e Employee) (Employee, error)
}

// Repository provides PostgreSQL persistence for the workshop.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type (
	stockTx   interface{ stock.TxStore }
	catalogTx interface{ catalog.TxStore }
)

type txRepo struct {
	stockTx
	catalogTx
	tx pgx.Tx
}

// WithTx runs fn inside one read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{stockTx: stock.NewStore(tx), catalogTx: catalog.NewStore(tx), tx: tx})
	})
}

const orderColumns = `id, title, amount, customer_name, description, status, branch_id, photo, paid_amount,
created_by_user_id, created_at, updated_at, closed_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Title, &o.Amount, &o.CustomerName, &o.Description, &o.Status, &o.BranchID, &o.Photo,
		&o.PaidAmount, &o.CreatedByUserID, &o.CreatedAt, &o.UpdatedAt, &o.ClosedAt)
	return o, err
}

const employeeColumns = `id, first_name, last_name, phone, position, total_salary, active, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Phone, &e.Position, &e.TotalSalary, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (t *txRepo) InsertOrder(ctx context.Context, o Order) (Order, error) {
	row := t.tx.QueryRow(ctx, `INSERT INTO workshop_orders (title, amount, customer_name, description, status, branch_id, created_by_user_id)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, 0)) RETURNING `+orderColumns,
		o.Title, o.Amount, o.CustomerName, o.Description, o.Status, o.BranchID, derefID(o.CreatedByUserID))
	created, err := scanOrder(row)
	if err != nil {
		return Order{}, fmt.Errorf("workshop: insert order: %w", err)
	}
	return created, nil
}

func (t *txRepo) LockOrder(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM workshop_orders WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("workshop: lock order: %w", err)
	}
	return o, nil
}

func (t *txRepo) SaveOrder(ctx context.Context, o Order) (Order, error) {
	row := t.tx.QueryRow(ctx, `UPDATE workshop_orders SET title=$2, amount=$3, customer_name=$4, description=$5, status=$6,
paid_amount=$7, closed_at=$8, updated_at=NOW() WHERE id=$1 RETURNING `+orderColumns,
		o.ID, o.Title, o.Amount, o.CustomerName, o.Description, o.Status, o.PaidAmount, o.ClosedAt)
	saved, err := scanOrder(row)
	if err != nil {
		return Order{}, fmt.Errorf("workshop: save order: %w", err)
	}
	return saved, nil
}

func (t *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM workshop_orders WHERE id=$1`, id); err != nil {
		return fmt.Errorf("workshop: delete order: %w", err)
	}
	return nil
}

func (t *txRepo) InsertMaterial(ctx context.Context, m Material) (Material, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO workshop_order_materials (order_id, product_id, quantity, unit)
VALUES ($1, $2, $3, $4) RETURNING id, created_at`, m.OrderID, m.ProductID, m.Quantity, m.Unit).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return Material{}, fmt.Errorf("workshop: insert material: %w", err)
	}
	return m, nil
}

func (t *txRepo) InsertPayout(ctx context.Context, p Payout) (Payout, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO workshop_order_payouts (order_id, employee_id, amount, note)
VALUES ($1, $2, $3, $4) RETURNING id, created_at`, p.OrderID, p.EmployeeID, p.Amount, p.Note).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Payout{}, fmt.Errorf("workshop: insert payout: %w", err)
	}
	return p, nil
}

func (t *txRepo) InsertClosure(ctx context.Context, c Closure) (Closure, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO workshop_order_closures (order_id, order_amount, paid_amount, note, closed_by_user_id, closed_at)
VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6) RETURNING id`,
		c.OrderID, c.OrderAmount, c.PaidAmount, c.Note, derefID(c.ClosedByUserID), c.ClosedAt).Scan(&c.ID)
	if shared.IsUniqueViolation(err) {
		return Closure{}, ErrOrderClosed
	}
	if err != nil {
		return Closure{}, fmt.Errorf("workshop: insert closure: %w", err)
	}
	return c, nil
}

func (t *txRepo) InsertEmployee(ctx context.Context, e Employee) (Employee, error) {
	row := t.tx.QueryRow(ctx, `INSERT INTO workshop_employees (first_name, last_name, phone, position)
VALUES ($1, $2, $3, $4) RETURNING `+employeeColumns, e.FirstName, e.LastName, e.Phone, e.Position)
	created, err := scanEmployee(row)
	if err != nil {
		return Employee{}, fmt.Errorf("workshop: insert employee: %w", err)
	}
	return created, nil
}

func (t *txRepo) LockEmployee(ctx context.Context, id int64) (Employee, error) {
	e, err := scanEmployee(t.tx.QueryRow(ctx, `SELECT `+employeeColumns+` FROM workshop_employees WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, fmt.Errorf("workshop: lock employee: %w", err)
	}
	return e, nil
}

func (t *txRepo) SaveEmployee(ctx context.Context, e Employee) (Employee, error) {
	row := t.tx.QueryRow(ctx, `UPDATE workshop_employees SET first_name=$2, last_name=$3, phone=$4, position=$5,
total_salary=$6, active=$7, updated_at=NOW() WHERE id=$1 RETURNING `+employeeColumns,
		e.ID, e.FirstName, e.LastName, e.Phone, e.Position, e.TotalSalary, e.Active)
	saved, err := scanEmployee(row)
	if err != nil {
		return Employee{}, fmt.Errorf("workshop: save employee: %w", err)
	}
	return saved, nil
}

// GetOrderDetail loads an order with its materials and payouts.
func (r *Repository) GetOrderDetail(ctx context.Context, id int64) (OrderDetail, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM workshop_orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderDetail{}, ErrOrderNotFound
	}
	if err != nil {
		return OrderDetail{}, fmt.Errorf("workshop: get order: %w", err)
	}
	detail := OrderDetail{Order: o, Materials: []MaterialDetail{}, Payouts: []PayoutDetail{}}

	rows, err := r.pool.Query(ctx, `SELECT m.id, m.order_id, m.product_id, m.quantity, m.unit, m.created_at, p.name, p.barcode
FROM workshop_order_materials m JOIN products p ON p.id = m.product_id
WHERE m.order_id=$1 ORDER BY m.id`, id)
	if err != nil {
		return OrderDetail{}, fmt.Errorf("workshop: list materials: %w", err)
	}
	for rows.Next() {
		var m MaterialDetail
		if err := rows.Scan(&m.ID, &m.OrderID, &m.ProductID, &m.Quantity, &m.Unit, &m.CreatedAt, &m.ProductName, &m.ProductBarcode); err != nil {
			rows.Close()
			return OrderDetail{}, err
		}
		detail.Materials = append(detail.Materials, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return OrderDetail{}, err
	}

	rows, err = r.pool.Query(ctx, `SELECT po.id, po.order_id, po.employee_id, po.amount, po.note, po.created_at,
e.first_name, e.last_name, e.phone, e.position
FROM workshop_order_payouts po JOIN workshop_employees e ON e.id = po.employee_id
WHERE po.order_id=$1 ORDER BY po.id`, id)
	if err != nil {
		return OrderDetail{}, fmt.Errorf("workshop: list payouts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p   PayoutDetail
			emp Employee
		)
		if err := rows.Scan(&p.ID, &p.OrderID, &p.EmployeeID, &p.Amount, &p.Note, &p.CreatedAt,
			&emp.FirstName, &emp.LastName, &emp.Phone, &emp.Position); err != nil {
			return OrderDetail{}, err
		}
		p.EmployeeName = emp.FullName()
		p.EmployeePhone = emp.Phone
		p.EmployeePosition = emp.Position
		detail.Payouts = append(detail.Payouts, p)
	}
	return detail, rows.Err()
}

// ListOrders lists the orders of a branch, newest first. An empty status lists all.
func (r *Repository) ListOrders(ctx context.Context, branchID int64, status Status) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM workshop_orders
WHERE branch_id=$1 AND ($2 = '' OR status = $2) ORDER BY id DESC`, branchID, string(status))
	if err != nil {
		return nil, fmt.Errorf("workshop: list orders: %w", err)
	}
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListClosures lists closures in the filter window, newest first.
func (r *Repository) ListClosures(ctx context.Context, filter ClosureFilter) ([]Closure, error) {
	var from, to *time.Time
	if !filter.From.IsZero() {
		from = &filter.From
	}
	if !filter.To.IsZero() {
		to = &filter.To
	}
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, order_amount, paid_amount, note, closed_by_user_id, closed_at
FROM workshop_order_closures
WHERE ($1::timestamptz IS NULL OR closed_at >= $1) AND ($2::timestamptz IS NULL OR closed_at <= $2)
ORDER BY closed_at DESC, id DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("workshop: list closures: %w", err)
	}
	defer rows.Close()
	out := []Closure{}
	for rows.Next() {
		var c Closure
		if err := rows.Scan(&c.ID, &c.OrderID, &c.OrderAmount, &c.PaidAmount, &c.Note, &c.ClosedByUserID, &c.ClosedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetEmployee loads one employee.
func (r *Repository) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	e, err := scanEmployee(r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM workshop_employees WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, fmt.Errorf("workshop: get employee: %w", err)
	}
	return e, nil
}

// ListEmployees searches employees by name, phone or position, newest first.
func (r *Repository) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error) {
	var (
		where []string
		args  []any
	)
	if !filter.IncludeInactive {
		where = append(where, "active")
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf(`(first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR phone ILIKE $%[1]d OR position ILIKE $%[1]d)`, len(args)))
	}
	query := `SELECT ` + employeeColumns + ` FROM workshop_employees`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("workshop: list employees: %w", err)
	}
	defer rows.Close()
	out := []Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
