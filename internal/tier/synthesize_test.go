package tier

import (
	"testing"
)

func TestSynthesize_NamedGroup(t *testing.T) {
	src := &PricingSource{Groups: []Group{{
		Name: "VIP",
		Options: []Option{
			{Name: "Early", Price: Some(20)},
			{Name: "Late", Price: Some(30)},
		},
	}}}

	got := Synthesize(src)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Name != "Early" || got[0].Price != "20€" {
		t.Errorf("first record = %+v, want Early/20€", got[0])
	}
	if got[1].Name != "Late" || got[1].Price != "30€" {
		t.Errorf("second record = %+v, want Late/30€", got[1])
	}
	for _, r := range got {
		if r.URL != "" {
			t.Errorf("synthesized record %q should not carry a URL", r.Name)
		}
	}
}

func TestSynthesize_UnnamedGroup(t *testing.T) {
	src := &PricingSource{Groups: []Group{{
		Name:    "General",
		Price:   Some(15),
		Options: []Option{{Name: "", Price: Some(15), Active: true}},
	}}}

	got := Synthesize(src)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Name != "General" || got[0].Price != "15€" {
		t.Errorf("record = %+v, want General/15€", got[0])
	}
}

func TestSynthesize_PriceResolution(t *testing.T) {
	tests := []struct {
		name      string
		group     Group
		wantName  string
		wantPrice string
	}{
		{
			name: "active option wins over first",
			group: Group{Name: "Entrada", Options: []Option{
				{Price: Some(10)},
				{Price: Some(12.5), Active: true},
			}},
			wantName:  "Entrada",
			wantPrice: "12.5€",
		},
		{
			name: "first option when none active",
			group: Group{Name: "Entrada", Options: []Option{
				{Price: Some(10)},
				{Price: Some(12)},
			}},
			wantName:  "Entrada",
			wantPrice: "10€",
		},
		{
			name:      "group price when option has none",
			group:     Group{Name: " Mesa  VIP ", Price: Some(200), Options: []Option{{Active: true}}},
			wantName:  "Mesa VIP",
			wantPrice: "200€",
		},
		{
			name:      "fallback text when nothing numeric",
			group:     Group{Name: "Lista", FallbackPrice: "Gratis"},
			wantName:  "Lista",
			wantPrice: "Gratis",
		},
		{
			name: "named option without price uses fallback text",
			group: Group{Name: "Cena", FallbackPrice: "desde 40€", Options: []Option{
				{Name: "Menu degustación"},
			}},
			wantName:  "Menu degustación",
			wantPrice: "desde 40€",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(&PricingSource{Groups: []Group{tt.group}})
			if len(got) != 1 {
				t.Fatalf("expected 1 record, got %d", len(got))
			}
			if got[0].Name != tt.wantName {
				t.Errorf("name = %q, want %q", got[0].Name, tt.wantName)
			}
			if got[0].Price != tt.wantPrice {
				t.Errorf("price = %q, want %q", got[0].Price, tt.wantPrice)
			}
		})
	}
}

func TestSynthesize_RecordCounts(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
		want    []string
	}{
		{
			name:    "all unnamed collapses to group",
			options: []Option{{Price: Some(5)}, {Price: Some(6)}, {Name: "  ", Price: Some(7)}},
			want:    []string{"Grupo"},
		},
		{
			name:    "unnamed siblings are dropped",
			options: []Option{{Price: Some(5)}, {Name: "A", Price: Some(6)}, {Price: Some(7)}, {Name: "B"}},
			want:    []string{"A", "B"},
		},
		{
			name:    "no options still yields the group",
			options: nil,
			want:    []string{"Grupo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(&PricingSource{Groups: []Group{{Name: "Grupo", Options: tt.options}}})
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d records, got %d", len(tt.want), len(got))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("record %d name = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestSynthesize_KeepsAmount(t *testing.T) {
	got := Synthesize(&PricingSource{Groups: []Group{
		{Name: "A", Options: []Option{{Price: Some(9.5)}}},
		{Name: "B", FallbackPrice: "consultar"},
	}})

	if v, ok := got[0].Amount(); !ok || v != 9.5 {
		t.Errorf("Amount() = %v, %v; want 9.5, true", v, ok)
	}
	if _, ok := got[1].Amount(); ok {
		t.Error("record priced from fallback text should have no amount")
	}
}

func TestSynthesize_Nil(t *testing.T) {
	if got := Synthesize(nil); len(got) != 0 {
		t.Errorf("Synthesize(nil) returned %d records", len(got))
	}
}
