package catalog

// row is implemented by pointers to the three entity types.
type row[T any] interface {
	*T
	key() string
	setKey(string)
	rev() int64
	setRev(int64)
	clone() T
}

// table keeps one collection in insertion order. It is not synchronized;
// Catalog guards every access.
type table[T any, P row[T]] struct {
	order []string
	rows  map[string]*T
}

func newTable[T any, P row[T]]() *table[T, P] {
	return &table[T, P]{rows: make(map[string]*T)}
}

func (t *table[T, P]) len() int {
	return len(t.order)
}

func (t *table[T, P]) list(keep func(*T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		v := t.rows[id]
		if keep != nil && !keep(v) {
			continue
		}
		out = append(out, P(v).clone())
	}
	return out
}

func (t *table[T, P]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return P(v).clone(), true
}

func (t *table[T, P]) has(id string) bool {
	_, ok := t.rows[id]
	return ok
}

func (t *table[T, P]) append(v T) {
	id := P(&v).key()
	stored := P(&v).clone()
	t.rows[id] = &stored
	t.order = append(t.order, id)
}

func (t *table[T, P]) replace(v T) {
	stored := P(&v).clone()
	t.rows[P(&v).key()] = &stored
}

func (t *table[T, P]) remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// update applies fn to every stored row and bumps the version of rows it changed.
func (t *table[T, P]) update(fn func(*T) bool) int {
	changed := 0
	for _, id := range t.order {
		v := t.rows[id]
		if fn(v) {
			P(v).setRev(P(v).rev() + 1)
			changed++
		}
	}
	return changed
}

// last returns up to n rows, newest first.
func (t *table[T, P]) last(n int) []T {
	out := make([]T, 0, n)
	for i := len(t.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, P(t.rows[t.order[i]]).clone())
	}
	return out
}

func (t *table[T, P]) reset() {
	t.order = nil
	t.rows = make(map[string]*T)
}
