package logging

import "testing"

func TestRedact(t *testing.T) {
	testCases := []struct {
		field  string
		value  string
		masked bool
	}{
		{"token", "abcdef1234567890", true},
		{"accessToken", "abcdef1234567890", true},
		{"Authorization", "Bearer abcdef", true},
		{"initData", "query_id=abc", true},
		{"phoneNumber", "+77001234567", true},
		{"email", "a@b.kz", true},
		{"store_name", "Bakery", false},
		{"path", "/orders/my-orders", false},
	}

	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			got := Redact(tc.field, tc.value)
			if tc.masked && got == tc.value {
				t.Errorf("Redact(%q) = %q, want masked", tc.field, got)
			}
			if !tc.masked && got != tc.value {
				t.Errorf("Redact(%q) = %q, want unchanged", tc.field, got)
			}
		})
	}
}

func TestRedact_ShortValuesFullyMasked(t *testing.T) {
	if got := Redact("token", "abc"); got != "***" {
		t.Errorf("Redact() = %q, want ***", got)
	}
}
