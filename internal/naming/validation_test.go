package naming

import (
	"strings"
	"testing"
)

func TestValidateResourceName(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid short", value: "tosca", wantErr: false},
		{name: "valid max length", value: strings.Repeat("a", dns1123LabelMaxLength), wantErr: false},
		{name: "too long", value: strings.Repeat("a", dns1123LabelMaxLength+1), wantErr: true},
		{name: "empty", value: "", wantErr: true},
		{name: "contains uppercase", value: "Tosca", wantErr: true},
		{name: "starts with hyphen", value: "-tosca", wantErr: true},
		{name: "ends with hyphen", value: "tosca-", wantErr: true},
		{name: "contains underscore", value: "lcm_service", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateResourceName(tc.value)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error but got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
