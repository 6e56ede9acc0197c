package resolution

import "testing"

func TestClosest(t *testing.T) {
	fullHD := Size{1920, 1080}

	tests := []struct {
		name       string
		candidates []Size
		target     Size
		want       Size
		wantOK     bool
	}{
		{
			name:       "exact match",
			candidates: []Size{{640, 480}, {1280, 720}, {1920, 1080}, {3840, 2160}},
			target:     fullHD,
			want:       Size{1920, 1080},
			wantOK:     true,
		},
		{
			name:       "largest below target wins on area error",
			candidates: []Size{{640, 480}, {1024, 768}},
			target:     fullHD,
			want:       Size{1024, 768},
			wantOK:     true,
		},
		{
			name:       "empty list",
			candidates: nil,
			target:     fullHD,
			wantOK:     false,
		},
		{
			name:       "tie keeps first encountered",
			candidates: []Size{{400, 300}, {300, 400}, {600, 200}},
			target:     Size{120000, 1},
			want:       Size{400, 300},
			wantOK:     true,
		},
		{
			name:       "single candidate far away",
			candidates: []Size{{160, 120}},
			target:     Size{3840, 2160},
			want:       Size{160, 120},
			wantOK:     true,
		},
		{
			name:       "above target closer than below",
			candidates: []Size{{1280, 720}, {2048, 1080}},
			target:     fullHD,
			want:       Size{2048, 1080},
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Closest(tt.candidates, tt.target)
			if ok != tt.wantOK {
				t.Fatalf("Closest() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Closest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorValues(t *testing.T) {
	target := Size{1920, 1080}
	if got := Error(Size{640, 480}, target); got != 1766400 {
		t.Errorf("Error(640x480) = %d, want 1766400", got)
	}
	if got := Error(Size{1024, 768}, target); got != 1287168 {
		t.Errorf("Error(1024x768) = %d, want 1287168", got)
	}
}

func TestSizeValid(t *testing.T) {
	if (Size{0, 1080}).Valid() {
		t.Error("zero width should be invalid")
	}
	if !(Size{1, 1}).Valid() {
		t.Error("1x1 should be valid")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Size
		wantErr bool
	}{
		{in: "1920x1080", want: Size{1920, 1080}},
		{in: " 640X480 ", want: Size{640, 480}},
		{in: "1920", wantErr: true},
		{in: "axb", wantErr: true},
		{in: "0x720", wantErr: true},
		{in: "-1x720", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
