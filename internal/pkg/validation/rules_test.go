package validation

import "testing"

type sample struct {
	Name   string  `validate:"required,notblank,min=2,max=100"`
	Reason *string `validate:"omitempty,notblank"`
}

func TestNotBlank(t *testing.T) {
	v := New()
	blank := "   "
	ok := "fine"

	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{"valid", sample{Name: "Town hall"}, false},
		{"whitespace name", sample{Name: "    "}, true},
		{"nil reason", sample{Name: "ok"}, false},
		{"blank reason", sample{Name: "ok", Reason: &blank}, true},
		{"reason", sample{Name: "ok", Reason: &ok}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
