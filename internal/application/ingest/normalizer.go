package ingest

import (
	"github.com/cpq/backend/internal/domain/order"
	"github.com/cpq/backend/internal/domain/source"
	"github.com/shopspring/decimal"
)

// fallbackSiteName names a section marker whose own name is blank
const fallbackSiteName = "Site"

// CollectProductIDs returns the distinct product ids referenced by item rows,
// preserving first-seen order. Section markers and display-only rows carry no
// product and are skipped.
func CollectProductIDs(lines []source.RawLine) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, line := range lines {
		if line.IsSection() || line.IsDisplayOnly() || line.ProductID == nil {
			continue
		}
		if _, ok := seen[*line.ProductID]; ok {
			continue
		}
		seen[*line.ProductID] = struct{}{}
		ids = append(ids, *line.ProductID)
	}
	return ids
}

// normalizeLine maps one raw item row to a canonical line item using the
// precomputed product-code map. Quantity truncates toward zero; prices keep
// the precision the source carried.
func normalizeLine(line source.RawLine, codes map[int64]string) (order.LineItem, error) {
	code := ""
	if line.ProductID != nil {
		code = codes[*line.ProductID]
	}
	return order.NewLineItem(
		code,
		int64(line.Quantity),
		decimal.NewFromFloat(line.UnitPrice),
		decimal.NewFromFloat(line.LineSubtotal),
	)
}

// GroupLines partitions ordered raw lines into site groups. Section markers
// rename the current group; display-only rows vanish; everything else becomes
// a line item in the current group. Items before the first marker land in the
// sentinel group. Markers repeating a name accumulate into the existing group.
// A group only materializes once it receives an item, so a marker followed
// immediately by another marker leaves no empty group behind.
func GroupLines(lines []source.RawLine, codes map[int64]string) ([]order.SiteGroup, error) {
	groupIndex := map[string]int{}
	var groups []order.SiteGroup

	current := order.DefaultSiteName
	for _, line := range lines {
		switch {
		case line.IsSection():
			current = line.Name
			if current == "" {
				current = fallbackSiteName
			}
		case line.IsDisplayOnly():
			continue
		default:
			item, err := normalizeLine(line, codes)
			if err != nil {
				return nil, err
			}
			idx, ok := groupIndex[current]
			if !ok {
				groups = append(groups, order.SiteGroup{Name: current})
				idx = len(groups) - 1
				groupIndex[current] = idx
			}
			groups[idx].Items = append(groups[idx].Items, item)
		}
	}
	return groups, nil
}

// buildCanonicalOrder assembles the canonical order from the fetched header
// and the grouped items. Pure transformation: no fetch, no store.
func buildCanonicalOrder(raw *source.RawOrder, groups []order.SiteGroup) (*order.CanonicalOrder, error) {
	o, err := order.NewCanonicalOrder(raw.Name, raw.PartnerName)
	if err != nil {
		return nil, err
	}
	o.SetCurrency(raw.CurrencyName)
	o.SetTotals(order.Totals{
		Subtotal:      decimal.NewFromFloat(raw.AmountUntaxed),
		DiscountTotal: decimal.Zero,
		TaxTotal:      decimal.NewFromFloat(raw.AmountTax),
		GrandTotal:    decimal.NewFromFloat(raw.AmountTotal),
	})
	o.SetMetadata("accepted_at", raw.DateOrder)
	for _, g := range groups {
		o.AddSiteGroup(g)
	}
	return o, nil
}
