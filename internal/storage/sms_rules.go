package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

// InsertSmsRule stores an SMS rule and sets its ID.
func (s *SQLiteStorage) InsertSmsRule(ctx context.Context, rule *model.SmsRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		return insertSmsRuleTx(ctx, tx, rule)
	}, service.TableSmsRule)
}

func insertSmsRuleTx(ctx context.Context, q queryable, rule *model.SmsRule) error {
	currency, err := model.ParseCurrency(rule.Currency)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO sms_rule (sender, regex, currency)
		VALUES (?, ?, ?)
	`, rule.Sender, rule.Regex, currency)
	if err != nil {
		return fmt.Errorf("failed to insert sms rule: %w", wrapConstraint(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get sms rule ID: %w", err)
	}
	rule.ID = id
	rule.Currency = currency
	return nil
}

// GetSmsRules returns all rules in insertion order. Rules whose pattern no
// longer compiles are reported as an error.
func (s *SQLiteStorage) GetSmsRules(ctx context.Context) ([]model.SmsRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getSmsRulesTx(ctx, s.db)
}

func getSmsRulesTx(ctx context.Context, q queryable) ([]model.SmsRule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, sender, regex, currency
		FROM sms_rule
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sms rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.SmsRule
	for rows.Next() {
		var id int64
		var sender, regex, currency string
		if err := rows.Scan(&id, &sender, &regex, &currency); err != nil {
			return nil, fmt.Errorf("failed to scan sms rule: %w", err)
		}
		rule, err := model.NewSmsRule(sender, regex, currency)
		if err != nil {
			return nil, fmt.Errorf("sms rule %d: %w", id, err)
		}
		rule.ID = id
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sms rules: %w", err)
	}
	return rules, nil
}

// SmsRulesBySender returns all rules grouped by sender, each group in
// insertion order.
func (s *SQLiteStorage) SmsRulesBySender(ctx context.Context) (map[string][]model.SmsRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return smsRulesBySenderTx(ctx, s.db)
}

func smsRulesBySenderTx(ctx context.Context, q queryable) (map[string][]model.SmsRule, error) {
	rules, err := getSmsRulesTx(ctx, q)
	if err != nil {
		return nil, err
	}
	bySender := make(map[string][]model.SmsRule)
	for _, r := range rules {
		bySender[r.Sender] = append(bySender[r.Sender], r)
	}
	return bySender, nil
}

// Transaction implementations for sms rule operations

func (t *sqliteTransaction) InsertSmsRule(ctx context.Context, rule *model.SmsRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	t.touch(service.TableSmsRule)
	return insertSmsRuleTx(ctx, t.tx, rule)
}

func (t *sqliteTransaction) GetSmsRules(ctx context.Context) ([]model.SmsRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getSmsRulesTx(ctx, t.tx)
}

func (t *sqliteTransaction) SmsRulesBySender(ctx context.Context) (map[string][]model.SmsRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return smsRulesBySenderTx(ctx, t.tx)
}
