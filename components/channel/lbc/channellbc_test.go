package channellbc

import (
	"context"
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestInitializeReports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := make(chan float64, 1)
	Initialize(ctx, time.Millisecond*10, func(cpuPercent float64) {
		select {
		case reports <- cpuPercent:
		default:
		}
	})

	select {
	case pcnt := <-reports:
		assert.T(t, pcnt >= 0)
	case <-time.After(5 * time.Second):
		t.Fatal("no load report")
	}
}
