package breadspec

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/bitechdev/BreadSpec/pkg/bread"
	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/logger"
)

// SearchQuery narrows query by a global search term and by column filters.
// Filters that cannot be applied leave the query unchanged.
func (c *Controller) SearchQuery(query common.SelectQuery, b *bread.Bread, layout *bread.Layout, filters common.Filters, global string) common.SelectQuery {
	query, _ = c.SearchQueryWithReport(query, b, layout, filters, global)
	return query
}

// SearchQueryWithReport is SearchQuery that also returns one outcome per filter.
//
// The global term is matched with LIKE '%term%' against every searchable
// column of layout that is not a relation column, OR-ed in one group.
// A filter on "relation.column" requires a related row whose column is LIKE
// the value; "relation.pivot.column" filters are not supported. Any other
// filter is handed to the Query method of the matching formfield.
func (c *Controller) SearchQueryWithReport(query common.SelectQuery, b *bread.Bread, layout *bread.Layout, filters common.Filters, global string) (common.SelectQuery, []common.FilterOutcome) {
	if global != "" && layout != nil {
		var columns []string
		for _, column := range layout.SearchableColumns() {
			if !strings.Contains(column, ".") {
				columns = append(columns, column)
			}
		}
		if len(columns) > 0 {
			term := "%" + global + "%"
			query = query.WhereGroup(func(q common.SelectQuery) common.SelectQuery {
				for _, column := range columns {
					q = q.WhereOr(column+" LIKE ?", term)
				}
				return q
			})
		}
	}

	outcomes := make([]common.FilterOutcome, 0, len(filters))
	for _, filter := range filters {
		var outcome common.FilterOutcome
		query, outcome = c.applyFilter(query, b, layout, filter)
		if outcome.Status == common.FilterIgnored {
			logger.Debug("Filter on %s ignored: %s", outcome.Column, outcome.Reason)
		}
		outcomes = append(outcomes, outcome)
	}
	return query, outcomes
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// relatedColumn reports whether column is a plain identifier and, when a
// column lister is configured, a column of table.
func (c *Controller) relatedColumn(table, column string) (bool, string) {
	if !identPattern.MatchString(column) {
		return false, "invalid column " + column
	}
	if c.env.Columns == nil {
		return true, ""
	}
	columns, err := c.env.Columns.Columns(context.Background(), table)
	if err != nil {
		return false, err.Error()
	}
	if !slices.Contains(columns, column) {
		return false, "unknown column " + table + "." + column
	}
	return true, ""
}

func (c *Controller) applyFilter(query common.SelectQuery, b *bread.Bread, layout *bread.Layout, filter common.Filter) (common.SelectQuery, common.FilterOutcome) {
	outcome := common.FilterOutcome{Column: filter.Column, Status: common.FilterIgnored}

	if strings.Contains(filter.Column, ".") {
		name, column := splitRelation(filter.Column)
		if strings.Contains(column, "pivot.") {
			outcome.Reason = "pivot filters are not supported"
			return query, outcome
		}
		if b == nil {
			outcome.Reason = "no bread to resolve relation " + name
			return query, outcome
		}
		rel, ok := b.Model().Relation(name)
		if !ok {
			outcome.Reason = "unknown relation " + name
			return query, outcome
		}
		if ok, reason := c.relatedColumn(rel.Table, column); !ok {
			outcome.Reason = reason
			return query, outcome
		}
		value := "%" + cast.ToString(filter.Value) + "%"
		query = query.WhereHas(rel, b.Table, func(q common.SelectQuery) common.SelectQuery {
			return q.Where(rel.Alias()+"."+column+" LIKE ?", value)
		})
		outcome.Status = common.FilterApplied
		return query, outcome
	}

	var field *bread.Formfield
	if layout != nil {
		field = layout.Formfield(filter.Column)
	}
	if field == nil {
		outcome.Reason = "no formfield for column"
		return query, outcome
	}
	ff, fc := c.formfield(field)
	outcome.Status = common.FilterDelegated
	return ff.Query(fc, query, filter.Column, filter.Value), outcome
}

// OrderQuery orders by column. Translatable columns are ordered by their raw
// stored value, not by the active locale's entry. Direction is passed through.
func (c *Controller) OrderQuery(query common.SelectQuery, b *bread.Bread, layout *bread.Layout, column, direction string) common.SelectQuery {
	if column == "" {
		return query
	}
	order := strings.TrimSpace(column + " " + direction)
	if layout != nil && layout.IsFormfieldTranslatable(column) {
		// raw stored value on purpose
		return query.Order(order)
	}
	return query.Order(order)
}
