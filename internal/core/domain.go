package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Kind distinguishes the two transaction directions. Values match what
// the store persists.
const (
	Expense Kind = "Gasto"
	Income  Kind = "Ingreso"
)

// Currency of the amount as entered by the user. VES is the local
// currency; every transaction also carries both converted amounts.
const (
	USD Currency = "USD"
	VES Currency = "VES"
)

// LimitPeriod keys a category ceiling to a period kind.
const (
	LimitDaily   LimitPeriod = "diario"
	LimitWeekly  LimitPeriod = "semanal"
	LimitMonthly LimitPeriod = "mensual"
)

// Credit and installment states.
const (
	CreditActive Status = "activo"
	CreditPaid   Status = "pagado"

	InstallmentPending Status = "pendiente"
	InstallmentPaid    Status = "pagada"
)

// Uncategorized is the sentinel label for expense transactions whose
// category was never set. Income transactions carry no category at all.
const Uncategorized = "SIN CATEGORIA"

// DateLayout is the canonical calendar-day format used everywhere,
// including the store. It sorts lexicographically.
const DateLayout = "2006-01-02"

type (
	Kind        string
	Currency    string
	LimitPeriod string
	Status      string

	// Transaction is a single ledger entry. Both converted amounts are
	// fixed at recording time from the rate of that day and are never
	// recomputed from a later rate.
	Transaction struct {
		ID          int64    `json:"id"`
		Date        string   `json:"fecha"`
		Kind        Kind     `json:"tipo"`
		Description string   `json:"descripcion"`
		Amount      float64  `json:"montoOriginal"`
		Currency    Currency `json:"monedaOriginal"`
		AmountUSD   float64  `json:"montoUSD"`
		AmountVES   float64  `json:"montoVES"`
		Category    string   `json:"categoria,omitempty"`
		Rate        float64  `json:"tasa"`
	}

	// DailyRate is the VES-per-USD rate for one calendar day.
	DailyRate struct {
		Date string  `json:"fecha"`
		Rate float64 `json:"tasa"`
	}

	// CategoryLimit is a USD spending ceiling for one (category, period)
	// pair. Absence of a row means no limit.
	CategoryLimit struct {
		Category string      `json:"categoria"`
		Period   LimitPeriod `json:"periodo"`
		USD      float64     `json:"montoUSD"`
	}

	// Credit is an installment plan header. The contract
	// total == initial + count*installment is checked at creation only.
	Credit struct {
		ID             int64   `json:"id"`
		Name           string  `json:"nombre"`
		CreatedAt      string  `json:"fechaCreacion"`
		TotalUSD       float64 `json:"montoTotalUSD"`
		InitialUSD     float64 `json:"inicialUSD"`
		Installments   int     `json:"cuotasCantidad"`
		InstallmentUSD float64 `json:"montoCuotaUSD"`
		CadenceDays    int     `json:"planDias"`
		Status         Status  `json:"estado"`
	}

	// Installment is one scheduled payment of a credit plan. Payment
	// fields stay zero until it transitions to paid.
	Installment struct {
		ID        int64   `json:"id"`
		CreditID  int64   `json:"creditoId"`
		Seq       int     `json:"numero"`
		DueDate   string  `json:"fechaProgramada"`
		AmountUSD float64 `json:"montoUSD"`
		Status    Status  `json:"estado"`
		PaidDate  string  `json:"fechaPago,omitempty"`
		PaidRate  float64 `json:"tasaPago,omitempty"`
		PaidVES   float64 `json:"montoVESPago,omitempty"`
	}
)

// Categories is the fixed expense category set. CategoryCredits is the
// category under which credit payments land in the ledger.
var Categories = []string{
	"COMIDA",
	"COMIDA CHATARRA",
	"SERVICIOS",
	"JUEGOS",
	"OCIO",
	"SALUD",
	"PERSONAS",
	"ROPA",
	"AHORRO",
	"CRIPTO",
	"DEUDAS",
	"CREDITOS",
}

const CategoryCredits = "CREDITOS"

// CreditCadences are the allowed day counts between installments.
var CreditCadences = []int{7, 15, 21, 28}

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidKind       = errors.New("invalid transaction kind")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrEmptyDescription  = errors.New("empty description")
	ErrRateNotSet        = errors.New("daily rate not set")
	ErrLimitOrder        = errors.New("limits must satisfy daily <= weekly <= monthly")
	ErrCreditMismatch    = errors.New("credit total does not match initial plus installments")
	ErrInvalidCadence    = errors.New("cadence not in allowed plan days")
	ErrEmptySelection    = errors.New("no installments selected")
	ErrNotFound          = errors.New("not found")
	ErrCategoryForIncome = errors.New("income transactions carry no category")
	ErrUnknownCategory   = errors.New("unknown category")
)

// AmountTolerance bounds the floating point drift allowed on the
// recorded USD/VES identity. CreditTolerance is the looser bound on the
// credit plan contract check, matching cent-level user input.
const (
	AmountTolerance = 1e-6
	CreditTolerance = 0.01
)

// ValidRate reports whether r can be used for conversion.
func ValidRate(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r > 0
}

// ValidDate reports whether s is a real calendar day in canonical form.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// KnownCategory reports whether c is one of the fixed expense categories.
func KnownCategory(c string) bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

func (k Kind) Valid() bool {
	return k == Expense || k == Income
}

func (c Currency) Valid() bool {
	return c == USD || c == VES
}

func (p LimitPeriod) Valid() bool {
	return p == LimitDaily || p == LimitWeekly || p == LimitMonthly
}

// Validate checks a transaction before it reaches the store.
func (t Transaction) Validate() error {
	if !ValidDate(t.Date) {
		return ErrInvalidDate
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if !t.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if t.Amount <= 0 || math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return ErrInvalidAmount
	}
	if !ValidRate(t.Rate) {
		return ErrRateNotSet
	}
	if t.Kind == Income && t.Category != "" {
		return ErrCategoryForIncome
	}
	if math.Abs(t.AmountVES-t.AmountUSD*t.Rate) > AmountTolerance*math.Max(1, math.Abs(t.AmountVES)) {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateLimitSet enforces daily <= weekly <= monthly per category over
// a full replacement set. Missing period rows impose no ordering.
func ValidateLimitSet(limits []CategoryLimit) error {
	byCat := make(map[string]map[LimitPeriod]float64)
	for _, l := range limits {
		if !l.Period.Valid() {
			return ErrLimitOrder
		}
		if l.USD <= 0 || math.IsNaN(l.USD) || math.IsInf(l.USD, 0) {
			return ErrInvalidAmount
		}
		m, ok := byCat[l.Category]
		if !ok {
			m = make(map[LimitPeriod]float64, 3)
			byCat[l.Category] = m
		}
		m[l.Period] = l.USD
	}
	for _, m := range byCat {
		d, hasD := m[LimitDaily]
		w, hasW := m[LimitWeekly]
		mo, hasM := m[LimitMonthly]
		if hasD && hasW && d > w {
			return ErrLimitOrder
		}
		if hasD && hasM && d > mo {
			return ErrLimitOrder
		}
		if hasW && hasM && w > mo {
			return ErrLimitOrder
		}
	}
	return nil
}
