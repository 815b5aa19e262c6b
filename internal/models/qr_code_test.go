package models

import (
	"testing"
	"time"
)

func TestAttendanceQRCodeStatus(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	two := 2

	tests := []struct {
		name string
		code AttendanceQRCode
		want CodeStatus
	}{
		{"usable", AttendanceQRCode{IsActive: true, ExpiresAt: now.Add(time.Hour)}, CodeUsable},
		{"expired beats inactive and exhausted", AttendanceQRCode{IsActive: false, ExpiresAt: now.Add(-time.Second), MaxUses: &two, CurrentUses: 5}, CodeExpired},
		{"inactive", AttendanceQRCode{IsActive: false, ExpiresAt: now.Add(time.Hour)}, CodeInactive},
		{"exhausted", AttendanceQRCode{IsActive: true, ExpiresAt: now.Add(time.Hour), MaxUses: &two, CurrentUses: 2}, CodeExhausted},
		{"below limit", AttendanceQRCode{IsActive: true, ExpiresAt: now.Add(time.Hour), MaxUses: &two, CurrentUses: 1}, CodeUsable},
		{"expires exactly now", AttendanceQRCode{IsActive: true, ExpiresAt: now}, CodeUsable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.Status(now); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
