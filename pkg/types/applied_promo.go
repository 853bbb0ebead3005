package types

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AppliedPromo mirrors the applied_promo composite type snapshotted on orders.
type AppliedPromo struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description *string   `json:"description,omitempty"`
	Percent     string    `json:"percent"`
}

// AppliedPromos represents a postgres array of applied_promo.
type AppliedPromos []AppliedPromo

// Value implements the driver.Valuer interface so the slice can be inserted.
func (p AppliedPromos) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	if len(p) == 0 {
		return "{}", nil
	}
	values := make([]string, 0, len(p))
	for _, entry := range p {
		composite, err := entry.toComposite()
		if err != nil {
			return nil, err
		}
		values = append(values, composite)
	}
	return pq.Array(values).Value()
}

// Scan implements sql.Scanner for the Postgres applied_promo[] column.
func (p *AppliedPromos) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}

	var raw pq.StringArray
	if err := raw.Scan(value); err != nil {
		return err
	}

	if len(raw) == 0 {
		*p = AppliedPromos{}
		return nil
	}

	result := make(AppliedPromos, 0, len(raw))
	for _, entry := range raw {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		promo, err := parseAppliedPromo(entry)
		if err != nil {
			return err
		}
		result = append(result, promo)
	}

	*p = result
	return nil
}

func (p AppliedPromo) toComposite() (string, error) {
	if p.ID == uuid.Nil {
		return "", fmt.Errorf("applied promo: missing id")
	}
	if strings.TrimSpace(p.Code) == "" {
		return "", fmt.Errorf("applied promo: missing code")
	}
	if strings.TrimSpace(p.Percent) == "" {
		return "", fmt.Errorf("applied promo: missing percent")
	}

	parts := []string{
		quoteCompositeString(p.ID.String()),
		quoteCompositeString(p.Code),
		quoteCompositeNullable(p.Description),
		quoteCompositeString(p.Percent),
	}
	return "(" + strings.Join(parts, ",") + ")", nil
}

func parseAppliedPromo(raw string) (AppliedPromo, error) {
	fields, err := parseComposite(raw, 4)
	if err != nil {
		return AppliedPromo{}, err
	}

	var promo AppliedPromo

	id, err := uuid.Parse(fields[0])
	if err != nil {
		return AppliedPromo{}, fmt.Errorf("applied promo: parse id %w", err)
	}
	promo.ID = id

	if strings.TrimSpace(fields[1]) == "" {
		return AppliedPromo{}, fmt.Errorf("applied promo: empty code")
	}
	promo.Code = fields[1]

	promo.Description = newCompositeNullable(fields[2])

	if strings.TrimSpace(fields[3]) == "" {
		return AppliedPromo{}, fmt.Errorf("applied promo: empty percent")
	}
	promo.Percent = fields[3]

	return promo, nil
}
