package main

import "testing"

func TestConfigFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"absent", []string{"-source", "null"}, ""},
		{"separate value", []string{"-source", "null", "-config", "fan.yaml"}, "fan.yaml"},
		{"equals", []string{"-config=fan.yaml", "-display", "none"}, "fan.yaml"},
		{"double dash", []string{"--config", "fan.yaml"}, "fan.yaml"},
		{"double dash equals", []string{"--config=/etc/fan.yaml"}, "/etc/fan.yaml"},
		{"missing value", []string{"-config"}, ""},
		{"other flag value", []string{"-input", "config"}, ""},
		{"after terminator", []string{"--", "-config", "fan.yaml"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := configFlag(tt.args); got != tt.want {
				t.Errorf("configFlag(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
