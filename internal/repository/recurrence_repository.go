package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/law-office-scheduling/internal/model"
)

// RuleRepo persists recurrence rules.  The service materializes a series
// eagerly (one occurrence row per generated date), so the rule row exists
// for provenance: it records how the series was produced and which
// occurrence anchors it.
type RuleRepo struct {
	db *sql.DB
}

// NewRuleRepo returns a RuleRepo bound to the given database.
func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

// Create inserts a rule and stamps the anchor occurrence with the new
// rule id, so every member of the series - anchor included - points back
// at the rule that produced it.
func (r *RuleRepo) Create(ctx context.Context, rule model.RecurrenceRule) (model.RecurrenceRule, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.RecurrenceRule{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO recurrence_rules (frequency, end_date, anchor_occurrence_id) VALUES (?,?,?)`,
		rule.Frequency, rule.EndDate, rule.AnchorOccurrenceID)
	if err != nil {
		return model.RecurrenceRule{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.RecurrenceRule{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE occurrences SET recurrence_rule_id = ? WHERE id = ?`,
		id, rule.AnchorOccurrenceID); err != nil {
		return model.RecurrenceRule{}, err
	}
	out := rule
	out.ID = uint64(id)
	err = tx.QueryRowContext(ctx,
		`SELECT created_at FROM recurrence_rules WHERE id = ?`, id).Scan(&out.CreatedAt)
	if err != nil {
		return model.RecurrenceRule{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.RecurrenceRule{}, err
	}
	committed = true
	return out, nil
}

// GetByID returns a rule or ErrRuleNotFound.
func (r *RuleRepo) GetByID(ctx context.Context, id uint64) (model.RecurrenceRule, error) {
	var rule model.RecurrenceRule
	err := r.db.QueryRowContext(ctx,
		`SELECT id, frequency, end_date, anchor_occurrence_id, created_at
		 FROM recurrence_rules WHERE id = ?`, id).
		Scan(&rule.ID, &rule.Frequency, &rule.EndDate, &rule.AnchorOccurrenceID, &rule.CreatedAt)
	if err == sql.ErrNoRows {
		return model.RecurrenceRule{}, ErrRuleNotFound
	}
	return rule, err
}
