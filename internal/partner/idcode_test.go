package partner

import "testing"

func TestExternalID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		want string
	}{
		{
			name: "uuid strips hyphens and truncates",
			id:   "a1b2c3d4-e5f6-7a8b-9c0d-e1f2a3b4c5d6",
			want: "a1b2c3d4e5",
		},
		{
			name: "short code with separators",
			id:   "BLR-2026-12345",
			want: "B2612345",
		},
		{
			name: "short code without separators",
			id:   "blr202645",
			want: "B2645",
		},
		{
			name: "long short code serial truncates",
			id:   "TRIP-2026-1234567890",
			want: "T261234567",
		},
		{
			name: "plain id stripped to alphanumerics",
			id:   "abc:def/12",
			want: "abcdef12",
		},
		{
			name: "short id unchanged",
			id:   "trip42",
			want: "trip42",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExternalID(tt.id)
			if got != tt.want {
				t.Errorf("ExternalID(%q) = %q, want %q", tt.id, got, tt.want)
			}
			if len(got) > maxExternalIDLen {
				t.Errorf("ExternalID(%q) = %q exceeds %d characters", tt.id, got, maxExternalIDLen)
			}
			if again := ExternalID(tt.id); again != got {
				t.Errorf("ExternalID(%q) is not deterministic: %q then %q", tt.id, got, again)
			}
		})
	}
}
