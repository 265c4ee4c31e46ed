package glyphcache

import "testing"

// maskFromRows builds a mask image from strings where '#' is ink.
func maskFromRows(top int, rows ...string) GlyphImage {
	w := len(rows[0])
	data := make([]byte, 0, w*len(rows))
	for _, r := range rows {
		for _, c := range r {
			if c == '#' {
				data = append(data, 0xff)
			} else {
				data = append(data, 0)
			}
		}
	}
	return GlyphImage{Top: top, Width: w, Height: len(rows), Content: ContentMask, Data: data}
}

func TestDescenderRegion(t *testing.T) {
	tests := []struct {
		name string
		img  GlyphImage
		want DescenderRegion
	}{
		{
			name: "no descender",
			img: maskFromRows(3,
				"..#..",
				".###.",
				"#####",
			),
			want: DescenderRegion{},
		},
		{
			name: "g-like tail",
			img: maskFromRows(2,
				".###.",
				"#...#",
				"....#",
				".###.",
			),
			want: DescenderRegion{Start: 1, End: 4},
		},
		{
			name: "baseline row skipped",
			img: maskFromRows(2,
				"..#..",
				"..#..",
				"#####",
				".....",
			),
			want: DescenderRegion{},
		},
		{
			name: "baseline is last row",
			img: maskFromRows(2,
				".#.",
				".#.",
				"###",
			),
			want: DescenderRegion{},
		},
		{
			name: "union over rows",
			img: maskFromRows(0,
				"######",
				"..#...",
				"....#.",
			),
			want: DescenderRegion{Start: 2, End: 5},
		},
		{
			name: "entirely below baseline",
			img: maskFromRows(-2,
				".#.",
				"##.",
			),
			want: DescenderRegion{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := descenderRegion(&tt.img); got != tt.want {
				t.Errorf("descenderRegion = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescenderRegion_Color(t *testing.T) {
	// 2x2 color image, bottom-right pixel has only blue.
	img := GlyphImage{
		Top: 0, Width: 2, Height: 2, Content: ContentColor,
		Data: []byte{
			1, 1, 1, 1, 1, 1, 1, 1,
			0, 0, 0, 0, 0, 0, 9, 0,
		},
	}
	if got := descenderRegion(&img); got != (DescenderRegion{Start: 1, End: 2}) {
		t.Errorf("descenderRegion = %v, want [1,2)", got)
	}
}

func TestDescenderRegion_ShortData(t *testing.T) {
	img := GlyphImage{Top: 0, Width: 4, Height: 4, Data: make([]byte, 3)}
	if got := descenderRegion(&img); !got.Empty() {
		t.Errorf("descenderRegion = %v, want empty", got)
	}
}
