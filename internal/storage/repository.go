// Package storage is the sqlite persistence layer: a thin repository
// over the five ledger tables, with multi-step writes grouped into
// transactions.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Ultramusic201/Anzu/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = `id, fecha, tipo, descripcion, monto_original, moneda_original,
	monto_usd_registro, monto_ves_registro, categoria, tasa_ves_a_usd`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var categoria sql.NullString
	err := row.Scan(&t.ID, &t.Date, &t.Kind, &t.Description, &t.Amount, &t.Currency,
		&t.AmountUSD, &t.AmountVES, &categoria, &t.Rate)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Category = categoria.String
	return t, nil
}

func categoriaValue(c string) any {
	if c == "" {
		return nil
	}
	return c
}

func insertTransactionTx(ctx context.Context, tx *sql.Tx, t core.Transaction) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO transacciones
		(fecha, tipo, descripcion, monto_original, moneda_original,
		 monto_usd_registro, monto_ves_registro, categoria, tasa_ves_a_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date, t.Kind, t.Description, t.Amount, t.Currency,
		t.AmountUSD, t.AmountVES, categoriaValue(t.Category), t.Rate)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO transacciones
		(fecha, tipo, descripcion, monto_original, moneda_original,
		 monto_usd_registro, monto_ves_registro, categoria, tasa_ves_a_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date, t.Kind, t.Description, t.Amount, t.Currency,
		t.AmountUSD, t.AmountVES, categoriaValue(t.Category), t.Rate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "transaction saved",
		"id", t.ID,
		"fecha", t.Date,
		"tipo", t.Kind,
		"monto_usd", t.AmountUSD)

	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transacciones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// TransactionsInRange returns ledger rows whose date lies in the
// inclusive [start, end] range. Dates are canonical YYYY-MM-DD strings,
// so the TEXT comparison orders correctly even against a synthetic end
// bound that is not a real day.
func (r *SQLiteRepository) TransactionsInRange(ctx context.Context, start, end string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+`
		FROM transacciones WHERE fecha >= ? AND fecha <= ?
		ORDER BY fecha DESC, id DESC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query transactions in range: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+`
		FROM transacciones ORDER BY fecha DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// SearchFilter narrows a transaction query. Zero-valued fields are
// ignored; MinUSD/MaxUSD are pointers so an explicit zero bound still
// applies.
type SearchFilter struct {
	Start  string
	End    string
	Query  string
	MinUSD *float64
	MaxUSD *float64
}

func (r *SQLiteRepository) SearchTransactions(ctx context.Context, f SearchFilter) ([]core.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transacciones WHERE 1=1`
	var args []any
	if f.Start != "" {
		q += ` AND fecha >= ?`
		args = append(args, f.Start)
	}
	if f.End != "" {
		q += ` AND fecha <= ?`
		args = append(args, f.End)
	}
	if f.Query != "" {
		q += ` AND descripcion LIKE ?`
		args = append(args, "%"+f.Query+"%")
	}
	if f.MinUSD != nil {
		q += ` AND monto_usd_registro >= ?`
		args = append(args, *f.MinUSD)
	}
	if f.MaxUSD != nil {
		q += ` AND monto_usd_registro <= ?`
		args = append(args, *f.MaxUSD)
	}
	q += ` ORDER BY fecha DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpsertDailyRate(ctx context.Context, rate core.DailyRate) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO tasas_diarias (fecha, tasa) VALUES (?, ?)
		ON CONFLICT(fecha) DO UPDATE SET tasa = excluded.tasa`,
		rate.Date, rate.Rate)
	if err != nil {
		return fmt.Errorf("upsert daily rate: %w", err)
	}
	slog.InfoContext(ctx, "daily rate saved", "fecha", rate.Date, "tasa", rate.Rate)
	return nil
}

// DailyRate returns the rate recorded for one day, or ErrRateNotSet
// when no row exists.
func (r *SQLiteRepository) DailyRate(ctx context.Context, date string) (core.DailyRate, error) {
	var rate core.DailyRate
	err := r.db.QueryRowContext(ctx,
		`SELECT fecha, tasa FROM tasas_diarias WHERE fecha = ?`, date).
		Scan(&rate.Date, &rate.Rate)
	if err == sql.ErrNoRows {
		return core.DailyRate{}, core.ErrRateNotSet
	}
	if err != nil {
		return core.DailyRate{}, fmt.Errorf("query daily rate: %w", err)
	}
	return rate, nil
}

// ReplaceLimits swaps the whole limit set atomically. The caller has
// already validated the ordering contract; a partial write would leave
// an inconsistent set, hence the transaction.
func (r *SQLiteRepository) ReplaceLimits(ctx context.Context, limits []core.CategoryLimit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace limits: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM limites`); err != nil {
		return fmt.Errorf("clear limits: %w", err)
	}
	for _, l := range limits {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO limites (categoria, periodo, monto_usd) VALUES (?, ?, ?)`,
			l.Category, l.Period, l.USD); err != nil {
			return fmt.Errorf("insert limit %s/%s: %w", l.Category, l.Period, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace limits: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Limits(ctx context.Context) ([]core.CategoryLimit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT categoria, periodo, monto_usd FROM limites ORDER BY categoria, periodo`)
	if err != nil {
		return nil, fmt.Errorf("query limits: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryLimit
	for rows.Next() {
		var l core.CategoryLimit
		if err := rows.Scan(&l.Category, &l.Period, &l.USD); err != nil {
			return nil, fmt.Errorf("scan limit: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate limits: %w", err)
	}
	return out, nil
}

// CreateCredit persists the plan header, its installment schedule and
// the optional initial-payment ledger entry in one transaction. Either
// everything lands or nothing does.
func (r *SQLiteRepository) CreateCredit(ctx context.Context, c core.Credit, schedule []core.Installment, initial *core.Transaction) (core.Credit, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Credit{}, fmt.Errorf("begin create credit: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO creditos
		(nombre, fecha_creacion, monto_total_usd, inicial_usd,
		 cuotas_cantidad, monto_cuota_usd, plan_dias, estado)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.CreatedAt, c.TotalUSD, c.InitialUSD,
		c.Installments, c.InstallmentUSD, c.CadenceDays, c.Status)
	if err != nil {
		return core.Credit{}, fmt.Errorf("insert credit: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Credit{}, fmt.Errorf("insert credit id: %w", err)
	}

	for _, inst := range schedule {
		if _, err := tx.ExecContext(ctx, `INSERT INTO cuotas
			(credito_id, numero, fecha_programada, monto_usd, estado)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, inst.Seq, inst.DueDate, inst.AmountUSD, inst.Status); err != nil {
			return core.Credit{}, fmt.Errorf("insert installment %d: %w", inst.Seq, err)
		}
	}

	if initial != nil {
		if _, err := insertTransactionTx(ctx, tx, *initial); err != nil {
			return core.Credit{}, fmt.Errorf("insert initial payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Credit{}, fmt.Errorf("commit create credit: %w", err)
	}

	slog.InfoContext(ctx, "credit created",
		"id", c.ID,
		"nombre", c.Name,
		"cuotas", c.Installments,
		"plan_dias", c.CadenceDays)

	return c, nil
}

const creditColumns = `id, nombre, fecha_creacion, monto_total_usd, inicial_usd,
	cuotas_cantidad, monto_cuota_usd, plan_dias, estado`

func scanCredit(row interface{ Scan(...any) error }) (core.Credit, error) {
	var c core.Credit
	err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.TotalUSD, &c.InitialUSD,
		&c.Installments, &c.InstallmentUSD, &c.CadenceDays, &c.Status)
	return c, err
}

func (r *SQLiteRepository) Credits(ctx context.Context) ([]core.Credit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+creditColumns+` FROM creditos ORDER BY fecha_creacion DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query credits: %w", err)
	}
	defer rows.Close()

	var out []core.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credits: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Credit(ctx context.Context, id int64) (core.Credit, error) {
	c, err := scanCredit(r.db.QueryRowContext(ctx,
		`SELECT `+creditColumns+` FROM creditos WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return core.Credit{}, core.ErrNotFound
	}
	if err != nil {
		return core.Credit{}, fmt.Errorf("query credit: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) InstallmentsByCredit(ctx context.Context, creditID int64) ([]core.Installment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, credito_id, numero, fecha_programada, monto_usd, estado,
		fecha_pago, tasa_pago, monto_ves_pago
		FROM cuotas WHERE credito_id = ? ORDER BY numero`, creditID)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	defer rows.Close()

	var out []core.Installment
	for rows.Next() {
		var inst core.Installment
		var paidDate sql.NullString
		var paidRate, paidVES sql.NullFloat64
		if err := rows.Scan(&inst.ID, &inst.CreditID, &inst.Seq, &inst.DueDate,
			&inst.AmountUSD, &inst.Status, &paidDate, &paidRate, &paidVES); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		inst.PaidDate = paidDate.String
		inst.PaidRate = paidRate.Float64
		inst.PaidVES = paidVES.Float64
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate installments: %w", err)
	}
	return out, nil
}

// PayInstallments settles the selected pending installments, inserts
// the consolidated ledger entry for their sum, and flips the credit to
// paid when nothing is left pending, all in one transaction. A selected
// id that is missing or no longer pending aborts the whole payment.
func (r *SQLiteRepository) PayInstallments(ctx context.Context, creditID int64, ids []int64, paidDate string, rate float64, payment core.Transaction) (core.Credit, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Credit{}, fmt.Errorf("begin pay installments: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `UPDATE cuotas
			SET estado = ?, fecha_pago = ?, tasa_pago = ?, monto_ves_pago = monto_usd * ?
			WHERE id = ? AND credito_id = ? AND estado = ?`,
			core.InstallmentPaid, paidDate, rate, rate, id, creditID, core.InstallmentPending)
		if err != nil {
			return core.Credit{}, fmt.Errorf("pay installment %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return core.Credit{}, fmt.Errorf("pay installment %d rows: %w", id, err)
		}
		if n == 0 {
			return core.Credit{}, fmt.Errorf("pay installment %d: %w", id, core.ErrNotFound)
		}
	}

	if _, err := insertTransactionTx(ctx, tx, payment); err != nil {
		return core.Credit{}, fmt.Errorf("insert payment transaction: %w", err)
	}

	var pending int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cuotas WHERE credito_id = ? AND estado = ?`,
		creditID, core.InstallmentPending).Scan(&pending); err != nil {
		return core.Credit{}, fmt.Errorf("count pending installments: %w", err)
	}
	if pending == 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE creditos SET estado = ? WHERE id = ?`,
			core.CreditPaid, creditID); err != nil {
			return core.Credit{}, fmt.Errorf("close credit: %w", err)
		}
	}

	c, err := scanCredit(tx.QueryRowContext(ctx,
		`SELECT `+creditColumns+` FROM creditos WHERE id = ?`, creditID))
	if err == sql.ErrNoRows {
		return core.Credit{}, core.ErrNotFound
	}
	if err != nil {
		return core.Credit{}, fmt.Errorf("reload credit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Credit{}, fmt.Errorf("commit pay installments: %w", err)
	}

	slog.InfoContext(ctx, "installments paid",
		"credito", creditID,
		"cuotas", len(ids),
		"restantes", pending)

	return c, nil
}
