package order

// GroupRows folds flat join rows, already ordered by order id then item id,
// into nested orders. Orders appear in first-seen order. Every order has a
// non-nil Items slice, empty when the left join produced no item.
func GroupRows(rows []Row) []Order {
	out := make([]Order, 0)
	index := make(map[int64]int)
	for _, r := range rows {
		i, ok := index[r.Header.ID]
		if !ok {
			h := r.Header
			h.Items = make([]Item, 0)
			out = append(out, h)
			i = len(out) - 1
			index[h.ID] = i
		}
		if r.Item != nil {
			out[i].Items = append(out[i].Items, *r.Item)
		}
	}
	return out
}
