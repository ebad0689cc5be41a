package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "state", "cryo.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Vessel:      "tug",
		MissionTime: 3600,
		SavedAt:     saved,
		Pools: []PoolState{
			{Part: "tank", Resource: "LqdHydrogen", Amount: 975.3, Max: 1000},
			{Part: "bus", Resource: "ElectricCharge", Amount: 12, Max: 50},
		},
		Tanks: []TankState{{Tank: "tank", LastUpdateTime: 3600, CoolingEnabled: false}},
	}
	if err := st.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := st.Load(ctx, "tug")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MissionTime != 3600 || !got.SavedAt.Equal(saved) {
		t.Fatalf("unexpected header %+v", got)
	}
	if len(got.Pools) != 2 || got.Pools[0].Part != "bus" || got.Pools[1].Amount != 975.3 {
		t.Fatalf("unexpected pools %+v", got.Pools)
	}
	if len(got.Tanks) != 1 || got.Tanks[0].CoolingEnabled || got.Tanks[0].LastUpdateTime != 3600 {
		t.Fatalf("unexpected tanks %+v", got.Tanks)
	}
}

func TestSaveReplacesPrevious(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	first := Snapshot{Vessel: "tug", MissionTime: 1, Pools: []PoolState{{Part: "a", Resource: "X", Amount: 1, Max: 1}}}
	second := Snapshot{Vessel: "tug", MissionTime: 2, Tanks: []TankState{{Tank: "a", CoolingEnabled: true}}}
	if err := st.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := st.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	got, err := st.Load(ctx, "tug")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MissionTime != 2 || len(got.Pools) != 0 || len(got.Tanks) != 1 || !got.Tanks[0].CoolingEnabled {
		t.Fatalf("snapshot not replaced: %+v", got)
	}
}

func TestLoadNotFound(t *testing.T) {
	st := openTemp(t)
	if _, err := st.Load(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error")
	}
}
