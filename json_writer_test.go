package invoicing

import (
	"encoding/json"
	"testing"
)

func TestJsonObjectWriter(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		var w jsonObjectWriter
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "{}"; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("embed object", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("a", 1)
		w.Embed(json.RawMessage(`{"c":3,"d":4}`))
		w.Embed(json.RawMessage(`{}`))
		w.Append("b", 2)
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"a":1,"c":3,"d":4,"b":2}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("optional numbers", func(t *testing.T) {
		var w jsonObjectWriter
		w.Optional("absent", Number{})
		w.Optional("zero", N(0))
		w.Optional("rate", N(12.5))
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"zero":0,"rate":12.5}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("normalized item", func(t *testing.T) {
		item := NormalizedLineItem{
			LineItem: LineItem{ID: "a", SequenceNumber: 1, Quantity: N(2), Rate: N(10)},
			Amount:   R(20),
		}
		got, err := json.Marshal(item)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"id":"a","sequenceNumber":1,"quantity":2,"rate":10,"amount":20.00}`
		if string(got) != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
}
