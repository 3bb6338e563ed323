package format

import "testing"

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 Bytes"},
		{1, "1.00 Bytes"},
		{1023, "1023.00 Bytes"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
		{1 << 40, "1.00 TB"},
		{2048 << 40, "2048.00 TB"},
		{-2048, "-2.00 KB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
