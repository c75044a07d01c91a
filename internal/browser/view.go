package browser

import (
	"regexp"
	"slices"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"go.klb.dev/clipshelf/internal/history"
	"go.klb.dev/clipshelf/internal/hub"
)

// view is the cursor, selection and filter over the model. Selection and
// cursor follow item IDs so they survive rows shifting under new content.
type view struct {
	filter string
	match  func(history.Item) bool

	ids     []string
	visible []int
	shown   map[int]bool

	currentID  string
	currentRow int
	anchorID   string
	selected   map[string]bool
}

// Matcher returns a case-insensitive regexp matcher for s, or a fuzzy
// matcher when s is not a valid expression; nil when s is empty. Items
// without text are matched by their MIME types.
func Matcher(s string) func(history.Item) bool {
	if s == "" {
		return nil
	}
	subject := func(it history.Item) string {
		if it.Has(history.MIMEText) {
			return it.Text()
		}
		return joinMIMEs(it)
	}
	if re, err := regexp.Compile("(?i)" + s); err == nil {
		return func(it history.Item) bool { return re.MatchString(subject(it)) }
	}
	return func(it history.Item) bool {
		return len(fuzzy.Find(s, []string{subject(it)})) > 0
	}
}

// MatchSpans returns the byte ranges of s matched by filter, using the same
// rules as Matcher.
func MatchSpans(filter, s string) [][2]int {
	if filter == "" || s == "" {
		return nil
	}
	var spans [][2]int
	if re, err := regexp.Compile("(?i)" + filter); err == nil {
		for _, loc := range re.FindAllStringIndex(s, -1) {
			if loc[1] > loc[0] {
				spans = append(spans, [2]int{loc[0], loc[1]})
			}
		}
		return spans
	}
	found := fuzzy.Find(filter, []string{s})
	if len(found) == 0 {
		return nil
	}
	for _, i := range found[0].MatchedIndexes {
		_, size := utf8.DecodeRuneInString(s[i:])
		if n := len(spans); n > 0 && spans[n-1][1] == i {
			spans[n-1][1] = i + size
			continue
		}
		spans = append(spans, [2]int{i, i + size})
	}
	return spans
}

func joinMIMEs(it history.Item) string {
	var out string
	for i, m := range it.MIMEs() {
		if i > 0 {
			out += " "
		}
		out += m
	}
	return out
}

// refresh recomputes visibility and re-anchors cursor and selection after
// the model or the filter changed.
func (v *view) refresh(items []history.Item) {
	prevTop := ""
	if len(v.ids) > 0 {
		prevTop = v.ids[0]
	}
	followTop := v.currentRow == 0 && v.currentID == prevTop

	v.ids = v.ids[:0]
	v.visible = v.visible[:0]
	v.shown = make(map[int]bool, len(items))
	for row, it := range items {
		v.ids = append(v.ids, it.ID)
		if v.match == nil || v.match(it) {
			v.visible = append(v.visible, row)
			v.shown[row] = true
		}
	}

	for id := range v.selected {
		if row := v.rowOf(id); row < 0 || !v.shown[row] {
			delete(v.selected, id)
		}
	}

	switch {
	case len(v.visible) == 0:
		v.setCurrent(-1)
	case followTop:
		v.setCurrent(v.visible[0])
	default:
		row := v.rowOf(v.currentID)
		if row < 0 {
			row = v.currentRow
		}
		v.setCurrent(v.nearestVisible(row, 1))
	}
	if len(v.selected) == 0 || v.rowOf(v.anchorID) < 0 {
		v.anchorID = v.currentID
	}
}

func (v *view) rowOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.Index(v.ids, id)
}

func (v *view) setCurrent(row int) {
	v.currentRow = row
	v.currentID = ""
	if row >= 0 && row < len(v.ids) {
		v.currentID = v.ids[row]
	}
}

// nearestVisible returns the first visible row from row walking in dir,
// then in the other direction; -1 when nothing is visible.
func (v *view) nearestVisible(row, dir int) int {
	if len(v.visible) == 0 {
		return -1
	}
	row = max(0, min(row, len(v.ids)-1))
	for r := row; r >= 0 && r < len(v.ids); r += dir {
		if v.shown[r] {
			return r
		}
	}
	for r := row; r >= 0 && r < len(v.ids); r -= dir {
		if v.shown[r] {
			return r
		}
	}
	return -1
}

// position returns the index of row in the visible list.
func (v *view) position(row int) int {
	return slices.Index(v.visible, row)
}

// move sets the cursor to row. With extend the selection spans from the
// anchor to row, otherwise the anchor moves along and the selection is
// cleared.
func (v *view) move(row int, extend bool) {
	v.setCurrent(row)
	if !extend || v.anchorID == "" {
		v.anchorID = v.currentID
		clear(v.selected)
		return
	}
	from, to := v.position(v.rowOf(v.anchorID)), v.position(row)
	if from < 0 || to < 0 {
		return
	}
	if from > to {
		from, to = to, from
	}
	v.selected = make(map[string]bool, to-from+1)
	for _, r := range v.visible[from : to+1] {
		v.selected[v.ids[r]] = true
	}
}

// selectedRows returns the selected rows in order, or the current row when
// nothing is explicitly selected.
func (v *view) selectedRows() []int {
	if len(v.selected) == 0 {
		if v.currentRow >= 0 {
			return []int{v.currentRow}
		}
		return nil
	}
	var rows []int
	for _, r := range v.visible {
		if v.selected[v.ids[r]] {
			rows = append(rows, r)
		}
	}
	return rows
}

// Length returns the number of items in the history.
func (b *Browser) Length() int { return b.model.Len() }

// Visible returns the rows passing the filter, newest first.
func (b *Browser) Visible() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.view.visible)
}

// Current returns the current row, or -1.
func (b *Browser) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view.currentRow
}

// Selected returns the selected rows; the current row counts as selected
// when no range has been selected.
func (b *Browser) Selected() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view.selectedRows()
}

// IsSelected reports whether row is part of an explicit selection range.
func (b *Browser) IsSelected(row int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if row < 0 || row >= len(b.view.ids) {
		return false
	}
	return b.view.selected[b.view.ids[row]]
}

// SetCurrent moves the cursor to row. Out of range rows wrap around with
// cycle and are clamped otherwise; hidden rows are skipped in the direction
// of travel. With selection the selection range is extended to row. It
// returns the new current row.
func (b *Browser) SetCurrent(row int, cycle, selection bool) int {
	b.mu.Lock()
	v := &b.view
	n := len(v.ids)
	if len(v.visible) == 0 {
		b.mu.Unlock()
		return -1
	}
	switch {
	case row < 0 && cycle:
		row = n - 1
	case row < 0:
		row = 0
	case row >= n && cycle:
		row = 0
	case row >= n:
		row = n - 1
	}
	dir := 1
	if row < v.currentRow {
		dir = -1
	}
	row = v.nearestVisible(row, dir)
	v.move(row, selection)
	b.mu.Unlock()

	b.publishCurrent()
	b.UpdateMenuItems()
	return row
}

// Step moves the cursor by delta visible rows, wrapping around with cycle.
func (b *Browser) Step(delta int, cycle, selection bool) int {
	b.mu.Lock()
	v := &b.view
	n := len(v.visible)
	if n == 0 {
		b.mu.Unlock()
		return -1
	}
	pos := v.position(v.currentRow)
	if pos < 0 {
		pos = 0
	} else {
		pos += delta
	}
	switch {
	case pos < 0 && cycle && v.position(v.currentRow) == 0:
		pos = n - 1
	case pos >= n && cycle && v.position(v.currentRow) == n-1:
		pos = 0
	}
	pos = max(0, min(pos, n-1))
	v.move(v.visible[pos], selection)
	row := v.currentRow
	b.mu.Unlock()

	b.publishCurrent()
	b.UpdateMenuItems()
	return row
}

// SelectAll selects every visible row.
func (b *Browser) SelectAll() {
	b.mu.Lock()
	v := &b.view
	v.selected = make(map[string]bool, len(v.visible))
	for _, r := range v.visible {
		v.selected[v.ids[r]] = true
	}
	b.mu.Unlock()
	b.publishCurrent()
}

// Filter returns the active filter expression.
func (b *Browser) Filter() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view.filter
}

// FilterItems hides the items not matching str, a case-insensitive regular
// expression. A string that does not compile is matched fuzzily.
func (b *Browser) FilterItems(str string) {
	b.mu.Lock()
	b.view.filter = str
	b.view.match = Matcher(str)
	b.view.refresh(b.model.Items())
	length := len(b.view.visible)
	b.mu.Unlock()

	b.hub.Publish(hub.Event{Kind: hub.KindChanged, Length: length, Text: str})
	b.publishCurrent()
	b.UpdateMenuItems()
}

// ClearFilter shows all items again.
func (b *Browser) ClearFilter() {
	b.FilterItems("")
}
