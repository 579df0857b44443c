package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/theirongolddev/nestegg/internal/bank"
	"github.com/theirongolddev/nestegg/internal/model"
)

func syntheticHistory(n int) model.UserHistory {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	h := model.UserHistory{UserID: 1}
	for i := 0; i < n; i++ {
		h.Records = append(h.Records, model.PurchaseRecord{
			UserID:    1,
			Timestamp: start.Add(time.Duration(i) * 7 * time.Hour).Format("2006-01-02T15:04:05"),
			Merchant:  fmt.Sprintf("shop-%d", i%13),
			Category:  []string{"groceries", "restaurants", "entertainment"}[i%3],
			Amount:    float64(5 + i%40),
		})
	}
	return h
}

func BenchmarkAggregateDays(b *testing.B) {
	h := syntheticHistory(5000)
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AggregateDays(h, 90, now)
	}
}

func BenchmarkProcessDashboard(b *testing.B) {
	e := newTestEngine(b, nil)
	dash := bank.Dashboard{UserID: 1, Income: 4000, Saved: 1500}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.ProcessDashboard(context.Background(), dash, Request{Horizon: 90}); err != nil {
			b.Fatal(err)
		}
	}
}
