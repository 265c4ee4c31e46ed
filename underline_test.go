package compositor

import (
	"slices"
	"testing"
)

func TestUnderlineIntercept(t *testing.T) {
	tests := []struct {
		name           string
		glyphX, top, h int
		start, end     int
		offset         int
		want           intercept
		wantOK         bool
	}{
		{"crosses descender", 100, 5, 8, 2, 6, -2, intercept{102, 106}, true},
		{"top edge of image", 0, 5, 8, 1, 3, 5, intercept{1, 3}, true},
		{"above image", 0, 5, 8, 1, 3, 6, intercept{}, false},
		{"below image", 0, 5, 8, 1, 3, -3, intercept{}, false},
		{"empty descender", 0, 5, 8, 4, 4, -2, intercept{}, false},
		{"negative glyph x", -3, 5, 8, 0, 2, -1, intercept{-3, -1}, true},
		{"bottom row of image", 0, 5, 8, 1, 3, -2, intercept{1, 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := underlineIntercept(tt.glyphX, tt.top, tt.h, tt.start, tt.end, tt.offset)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("underlineIntercept = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestUnderlineGaps(t *testing.T) {
	tests := []struct {
		name       string
		intercepts []intercept
		advance    int
		want       []intercept
	}{
		{"no intercepts", nil, 50, []intercept{{0, 50}}},
		{"zero advance", []intercept{{2, 4}}, 0, []intercept{}},
		{"single", []intercept{{102, 106}}, 200, []intercept{{0, 101}, {107, 200}}},
		{"unsorted", []intercept{{30, 32}, {10, 12}}, 40, []intercept{{0, 9}, {13, 29}, {33, 40}}},
		{"overlapping merge", []intercept{{10, 15}, {12, 20}}, 30, []intercept{{0, 9}, {21, 30}}},
		{"touching after widening", []intercept{{10, 12}, {14, 16}}, 30, []intercept{{0, 9}, {17, 30}}},
		{"at start", []intercept{{0, 3}}, 10, []intercept{{4, 10}}},
		{"past the end", []intercept{{8, 12}}, 10, []intercept{{0, 7}}},
		{"covers everything", []intercept{{-5, 20}}, 10, []intercept{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := underlineGaps(slices.Clone(tt.intercepts), tt.advance, nil)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("underlineGaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnderlineGaps_ReusesBuffer(t *testing.T) {
	buf := make([]intercept, 0, 4)
	got := underlineGaps([]intercept{{5, 6}}, 20, buf)
	if &got[0] != &buf[:1][0] {
		t.Error("underlineGaps should append into the provided buffer")
	}
}
