package message

// Headers is an insertion-ordered, case-sensitive-on-read header map that
// never stores duplicate keys: Set replaces an existing entry in place,
// Remove shifts later entries down to preserve order. Grounded on the
// teacher's last-write-wins header parsing idiom (pkg/client/client.go
// readHeaders), generalized into its own addressable type so both the
// request and response side of the message engine share one implementation
// (spec §4.2 "Header Operations").
type Headers struct {
	keys   []string
	values []string
}

// NewHeaders returns an empty header set.
func NewHeaders() *Headers {
	return &Headers{}
}

func (h *Headers) indexOf(key string) int {
	for i, k := range h.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// Get returns the value for key and whether it was present.
func (h *Headers) Get(key string) (string, bool) {
	if i := h.indexOf(key); i >= 0 {
		return h.values[i], true
	}
	return "", false
}

// Set replaces the value for key, or appends it if absent. An empty key is
// never stored (spec §3 Message invariant).
func (h *Headers) Set(key, value string) {
	if key == "" {
		return
	}
	if i := h.indexOf(key); i >= 0 {
		h.values[i] = value
		return
	}
	h.keys = append(h.keys, key)
	h.values = append(h.values, value)
}

// Remove deletes key if present, shifting later entries down by one so
// insertion order of the remaining entries is preserved.
func (h *Headers) Remove(key string) {
	i := h.indexOf(key)
	if i < 0 {
		return
	}
	h.keys = append(h.keys[:i], h.keys[i+1:]...)
	h.values = append(h.values[:i], h.values[i+1:]...)
}

// CompareResult is the outcome of Compare.
type CompareResult int

const (
	CompareEqual CompareResult = iota
	CompareNotEqual
	CompareAbsent
)

// Compare reports how the stored value for key relates to v.
func (h *Headers) Compare(key, v string) CompareResult {
	val, ok := h.Get(key)
	if !ok {
		return CompareAbsent
	}
	if val == v {
		return CompareEqual
	}
	return CompareNotEqual
}

// Len returns the number of stored headers.
func (h *Headers) Len() int {
	return len(h.keys)
}

// Each calls fn for every header in insertion order.
func (h *Headers) Each(fn func(key, value string)) {
	for i, k := range h.keys {
		fn(k, h.values[i])
	}
}

// Clone returns a deep copy.
func (h *Headers) Clone() *Headers {
	c := &Headers{
		keys:   make([]string, len(h.keys)),
		values: make([]string, len(h.values)),
	}
	copy(c.keys, h.keys)
	copy(c.values, h.values)
	return c
}
