package message

import "testing"

func TestHeadersSetLastWriteWins(t *testing.T) {
	h := NewHeaders()
	h.Set("Content-Length", "5")
	h.Set("Content-Length", "10")

	v, ok := h.Get("Content-Length")
	if !ok || v != "10" {
		t.Fatalf("Get = (%q, %v), want (10, true)", v, ok)
	}
	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
}

func TestHeadersRemove(t *testing.T) {
	h := NewHeaders()
	h.Set("Host", "example.com")
	h.Set("Via", "1.1 cacheproxy")
	h.Remove("Host")

	if _, ok := h.Get("Host"); ok {
		t.Fatalf("expected Host to be removed")
	}
	if v, ok := h.Get("Via"); !ok || v != "1.1 cacheproxy" {
		t.Fatalf("Via was disturbed by removing Host: %q %v", v, ok)
	}
}

func TestHeadersPreservesInsertionOrder(t *testing.T) {
	h := NewHeaders()
	h.Set("Host", "a")
	h.Set("Accept", "b")
	h.Set("User-Agent", "c")

	var order []string
	h.Each(func(k, v string) { order = append(order, k) })

	want := []string{"Host", "Accept", "User-Agent"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHeadersCompare(t *testing.T) {
	h := NewHeaders()
	h.Set("Transfer-Encoding", "chunked")

	if h.Compare("Transfer-Encoding", "chunked") != CompareEqual {
		t.Fatalf("expected CompareEqual")
	}
	if h.Compare("Transfer-Encoding", "identity") != CompareNotEqual {
		t.Fatalf("expected CompareNotEqual")
	}
	if h.Compare("Missing", "x") != CompareAbsent {
		t.Fatalf("expected CompareAbsent")
	}
}
