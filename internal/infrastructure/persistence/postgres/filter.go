package postgres

import (
	"strconv"
	"strings"

	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/valueobject"
)

// whereBuilder accumulates AND-ed predicates with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *whereBuilder) add(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *whereBuilder) filter(f port.PaymentFilter) *whereBuilder {
	if f.PartnerID != nil {
		b.add("partner_id = " + b.arg(*f.PartnerID))
	}
	if f.Status != nil {
		b.add("status = " + b.arg(f.Status.String()))
	}
	if f.From != nil {
		b.add("created_at >= " + b.arg(f.From.UTC()))
	}
	if f.To != nil {
		b.add("created_at <= " + b.arg(f.To.UTC()))
	}
	return b
}

// after restricts rows to those strictly after c in (created_at DESC, id DESC) order.
func (b *whereBuilder) after(c *valueobject.Cursor) *whereBuilder {
	if c == nil {
		return b
	}
	ts := b.arg(c.CreatedAt.UTC())
	id := b.arg(c.ID)
	b.add("(created_at < " + ts + " OR (created_at = " + ts + " AND id < " + id + "))")
	return b
}

func (b *whereBuilder) sql() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}
