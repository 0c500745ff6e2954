package layout

import "testing"

func TestColorAssignerFirstSeenGetsIndexZero(t *testing.T) {
	a := NewColorAssigner()
	if got := a.Index("Personal"); got != 0 {
		t.Fatalf("first calendar index = %d, want 0", got)
	}
	if got := a.Index("Work"); got != 1 {
		t.Fatalf("second calendar index = %d, want 1", got)
	}
	if got := a.Index("Personal"); got != 0 {
		t.Fatalf("repeat lookup index = %d, want 0", got)
	}
	if a.Len() != 2 {
		t.Fatalf("Len = %d, want 2", a.Len())
	}
}

func TestColorAssignerWrapsAround(t *testing.T) {
	a := NewColorAssigner()
	p := len(DefaultPalette)
	names := []string{"a", "b", "c", "d", "e", "f", "g"}

	firstFill, firstBorder := a.ColorFor(names[0])
	for _, n := range names[1:p] {
		a.ColorFor(n)
	}
	fill, border := a.ColorFor(names[p])
	if fill != firstFill || border != firstBorder {
		t.Errorf("calendar %d got %v/%v, want %v/%v", p+1, fill, border, firstFill, firstBorder)
	}
	if got := a.Index(names[p+1]); got != 1 {
		t.Errorf("calendar %d index = %d, want 1", p+2, got)
	}
}

func TestColorAssignerCustomPalette(t *testing.T) {
	pal := []ColorPair{{Fill: mustHex("#000000"), Border: mustHex("#ffffff")}}
	a := NewColorAssignerWithPalette(pal)
	f1, _ := a.ColorFor("x")
	f2, _ := a.ColorFor("y")
	if f1 != f2 {
		t.Error("single-entry palette should repeat")
	}
	if NewColorAssignerWithPalette(nil).palette[0] != DefaultPalette[0] {
		t.Error("empty palette should fall back to the default")
	}
}

func TestHex(t *testing.T) {
	c, err := Hex("#4285f4")
	if err != nil {
		t.Fatal(err)
	}
	if c != (Color{R: 0x42, G: 0x85, B: 0xf4}) {
		t.Errorf("got %v", c)
	}
	if c.String() != "#4285f4" {
		t.Errorf("String = %s", c.String())
	}
	for _, bad := range []string{"", "#123", "#zzzzzz"} {
		if _, err := Hex(bad); err == nil {
			t.Errorf("Hex(%q) should fail", bad)
		}
	}
}
