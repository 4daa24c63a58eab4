package domain

import (
	"math"
	"strconv"
)

// ============================================================
// Subscription usage — derived client-side from Subscription
// ============================================================

const (
	FreePlan     = "free"
	ActiveStatus = "active"

	// FreeTxLimit and FreeOCRLimit are the per-period ceilings of the free plan.
	FreeTxLimit  = 100
	FreeOCRLimit = 3

	// ProDisplayPct is the bar width shown for unlimited plans. It is a
	// rendering convention, not a usage measure or a soft cap.
	ProDisplayPct = 10.0
)

// Limit is a usage ceiling; Unlimited ceilings have no Value.
type Limit struct {
	Value     int
	Unlimited bool
}

func (l Limit) String() string {
	if l.Unlimited {
		return "∞"
	}
	return strconv.Itoa(l.Value)
}

// Severity is the visual tier of a usage bar.
type Severity string

const (
	SeverityNormal  Severity = "normal"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// SeverityFor maps a percentage to its tier: normal below 50, warning from
// 50 up to 80, danger above 80.
func SeverityFor(pct float64) Severity {
	switch {
	case pct > 80:
		return SeverityDanger
	case pct >= 50:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

// Usage is the derived view of a Subscription.
type Usage struct {
	PlanName string
	Status   string
	IsPro    bool

	TxCount  int
	OCRCount int
	TxLimit  Limit
	OCRLimit Limit
	TxPct    float64
	OCRPct   float64
}

// TxSeverity is the tier of the transaction usage bar.
func (u Usage) TxSeverity() Severity { return SeverityFor(u.TxPct) }

// OCRSeverity is the tier of the OCR usage bar.
func (u Usage) OCRSeverity() Severity { return SeverityFor(u.OCRPct) }

// DeriveUsage computes plan status, limits and bar percentages.
func DeriveUsage(sub Subscription) Usage {
	plan := sub.PlanName
	if plan == "" {
		plan = FreePlan
	}
	u := Usage{
		PlanName: plan,
		Status:   sub.Status,
		IsPro:    plan != FreePlan && sub.Status == ActiveStatus,
		TxCount:  int(sub.TxCount),
		OCRCount: int(sub.OCRCount),
	}

	if u.IsPro {
		u.TxLimit = Limit{Unlimited: true}
		u.OCRLimit = Limit{Unlimited: true}
		u.TxPct = ProDisplayPct
		u.OCRPct = ProDisplayPct
		return u
	}

	u.TxLimit = Limit{Value: FreeTxLimit}
	u.OCRLimit = Limit{Value: FreeOCRLimit}
	u.TxPct = usagePct(u.TxCount, FreeTxLimit)
	u.OCRPct = usagePct(u.OCRCount, FreeOCRLimit)
	return u
}

func usagePct(count, limit int) float64 {
	if limit <= 0 {
		return 100
	}
	return math.Max(0, math.Min(float64(count)/float64(limit)*100, 100))
}
