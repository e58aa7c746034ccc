package session

import (
	"context"
	"os"
	"testing"

	"eppdetect/internal/model"
)

func TestRedisMirror_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, addr, os.Getenv("REDIS_PASSWORD"))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	mirror := NewRedisMirror(client, "eppdetect:test:last_analysis")
	defer mirror.Clear(ctx)

	if _, ok, err := mirror.Load(ctx); err != nil || ok {
		t.Fatalf("Expected empty key, got ok=%v err=%v", ok, err)
	}

	verdict := model.ComplianceVerdict{
		Source:       "gate.jpg",
		TotalPersons: 1,
		Detections:   []model.Detection{model.NewDetection("helmet", 0.9, model.BoundingBox{X2: 10, Y2: 10})},
	}
	if err := mirror.Store(ctx, verdict); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, ok, err := mirror.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if got.Source != "gate.jpg" || got.Detections[0].Kind() != model.ClassHelmet {
		t.Errorf("Unexpected verdict after round trip: %+v", got)
	}
}
