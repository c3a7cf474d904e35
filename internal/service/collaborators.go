package service

import (
	"context"

	"github.com/avito-insight/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AnomalyChecker inspects a freshly written daily record before reports go
// out. Implementations flag suspicious data; the pipeline logs failures and
// continues, so a checker can never block report delivery.
type AnomalyChecker interface {
	CheckDaily(ctx context.Context, account *models.Account, current, previous *models.DailyStats) error
}

// ReportDispatcher delivers finished comparison reports. Delivery transport
// lives outside this service; the worker wires a logging dispatcher unless an
// external one is configured.
type ReportDispatcher interface {
	DispatchDaily(ctx context.Context, account *models.Account, report *DailyComparison) error
	DispatchWeekly(ctx context.Context, account *models.Account, report *WeeklyComparison) error
}

// NoopAnomalyChecker accepts every record
type NoopAnomalyChecker struct{}

func (NoopAnomalyChecker) CheckDaily(ctx context.Context, account *models.Account, current, previous *models.DailyStats) error {
	return nil
}

// ExpenseSpikeChecker flags a daily expense that exceeds the previous day's
// expense by more than the configured multiplier. First records and zero
// baselines are never flagged.
type ExpenseSpikeChecker struct {
	Multiplier decimal.Decimal
	log        *logrus.Logger
}

// NewExpenseSpikeChecker creates a checker flagging expense spikes above multiplier
func NewExpenseSpikeChecker(multiplier decimal.Decimal, log *logrus.Logger) *ExpenseSpikeChecker {
	return &ExpenseSpikeChecker{Multiplier: multiplier, log: log}
}

func (c *ExpenseSpikeChecker) CheckDaily(ctx context.Context, account *models.Account, current, previous *models.DailyStats) error {
	if previous == nil || !previous.DailyExpense.IsPositive() {
		return nil
	}
	threshold := previous.DailyExpense.Mul(c.Multiplier)
	if current.DailyExpense.GreaterThan(threshold) {
		c.log.WithFields(logrus.Fields{
			"account":          account.Name,
			"date":             current.StatDate.Format("2006-01-02"),
			"expense":          current.DailyExpense.String(),
			"previous_expense": previous.DailyExpense.String(),
		}).Warn("Daily expense spike detected")
	}
	return nil
}

// LogDispatcher logs finished reports instead of delivering them, used when
// no outbound transport is configured.
type LogDispatcher struct {
	log *logrus.Logger
}

// NewLogDispatcher creates a dispatcher that logs reports
func NewLogDispatcher(log *logrus.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) DispatchDaily(ctx context.Context, account *models.Account, report *DailyComparison) error {
	d.log.WithFields(logrus.Fields{
		"account": account.Name,
		"date":    report.Date,
		"metrics": len(report.Metrics),
	}).Info("Daily report ready")
	return nil
}

func (d *LogDispatcher) DispatchWeekly(ctx context.Context, account *models.Account, report *WeeklyComparison) error {
	d.log.WithFields(logrus.Fields{
		"account": account.Name,
		"period":  report.Period,
		"metrics": len(report.Metrics),
	}).Info("Weekly report ready")
	return nil
}
