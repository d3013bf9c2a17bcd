package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockTimeoutMillis(t *testing.T) {
	tests := []struct {
		name  string
		input time.Duration
		want  int64
	}{
		{"秒単位", 5 * time.Second, 5000},
		{"ミリ秒単位", 750 * time.Millisecond, 750},
		{"1ms未満は1msに切り上げる", 500 * time.Microsecond, 1},
		{"1ナノ秒でも無制限にしない", time.Nanosecond, 1},
		{"端数は切り上げる", 1500 * time.Microsecond, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lockTimeoutMillis(tt.input))
		})
	}
}
