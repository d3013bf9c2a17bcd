package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/client"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/owner"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-calendar-booking/internal/infrastructure/memory"
)

type scenarioEnv struct {
	svc       *ReservationService
	directory *DirectoryService
	ownerA    *owner.Owner
	ownerB    *owner.Owner
	client    *client.Client
}

// setupScenarioEnv はメモリストアで実際のロック動作を使うサービスを組み立てる
func setupScenarioEnv(t *testing.T) *scenarioEnv {
	t.Helper()
	store := memory.NewStore()
	directory := NewDirectoryService(memory.NewOwnerRepository(store), memory.NewClientRepository(store))

	ctx := context.Background()
	ownerA, err := directory.CreateOwner(ctx, "佐藤")
	require.NoError(t, err)
	ownerB, err := directory.CreateOwner(ctx, "鈴木")
	require.NoError(t, err)
	c, err := directory.CreateClient(ctx, "山田商事")
	require.NoError(t, err)

	svc := NewReservationService(memory.NewTxManager(store), memory.NewReservationRepository(store), nil, nil, 0)
	return &scenarioEnv{svc: svc, directory: directory, ownerA: ownerA, ownerB: ownerB, client: c}
}

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func (e *scenarioEnv) create(ownerID, start, end string) (*reservation.Reservation, error) {
	return e.svc.CreateReservation(context.Background(), CreateReservationInput{
		OwnerID:  ownerID,
		ClientID: e.client.ID,
		Title:    "打ち合わせ",
		StartAt:  ts(start),
		EndAt:    ts(end),
	})
}

func (e *scenarioEnv) countFor(t *testing.T, ownerID string) int {
	t.Helper()
	views, err := e.svc.ListByWindow(context.Background(), reservation.NewInterval(ts("2000-01-01 00:00:00"), ts("2100-01-01 00:00:00")))
	require.NoError(t, err)
	n := 0
	for _, v := range views {
		if v.OwnerID == ownerID {
			n++
		}
	}
	return n
}

func TestScenario_AdjacentReservations(t *testing.T) {
	env := setupScenarioEnv(t)

	_, err := env.create(env.ownerA.ID, "2025-08-05 10:00:00", "2025-08-05 11:00:00")
	require.NoError(t, err)

	t.Run("直後の予約は作成できる", func(t *testing.T) {
		_, err := env.create(env.ownerA.ID, "2025-08-05 11:00:00", "2025-08-05 12:00:00")
		assert.NoError(t, err)
	})

	t.Run("直前の予約は作成できる", func(t *testing.T) {
		_, err := env.create(env.ownerA.ID, "2025-08-05 09:00:00", "2025-08-05 10:00:00")
		assert.NoError(t, err)
	})

	assert.Equal(t, 3, env.countFor(t, env.ownerA.ID))
}

func TestScenario_CrossOwnerIndependence(t *testing.T) {
	env := setupScenarioEnv(t)

	_, err := env.create(env.ownerA.ID, "2025-08-05 10:00:00", "2025-08-05 11:00:00")
	require.NoError(t, err)
	_, err = env.create(env.ownerB.ID, "2025-08-05 10:00:00", "2025-08-05 11:00:00")
	require.NoError(t, err)

	assert.Equal(t, 1, env.countFor(t, env.ownerA.ID))
	assert.Equal(t, 1, env.countFor(t, env.ownerB.ID))
}

func TestScenario_ScopedByOwnerOnly(t *testing.T) {
	env := setupScenarioEnv(t)
	ctx := context.Background()

	other, err := env.directory.CreateClient(ctx, "田中工業")
	require.NoError(t, err)

	_, err = env.create(env.ownerA.ID, "2025-08-05 10:00:00", "2025-08-05 11:00:00")
	require.NoError(t, err)

	// クライアントが違っても同じオーナーなら重複
	_, err = env.svc.CreateReservation(ctx, CreateReservationInput{
		OwnerID:  env.ownerA.ID,
		ClientID: other.ID,
		Title:    "別件",
		StartAt:  ts("2025-08-05 10:00:00"),
		EndAt:    ts("2025-08-05 11:00:00"),
	})
	assert.ErrorIs(t, err, reservation.ErrOverlapConflict)
}

func TestScenario_PartialOverlapsRejected(t *testing.T) {
	env := setupScenarioEnv(t)

	_, err := env.create(env.ownerA.ID, "2025-08-05 10:00:00", "2025-08-05 11:00:00")
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end string
	}{
		{"後ろにはみ出す", "2025-08-05 10:30:00", "2025-08-05 11:30:00"},
		{"前にはみ出す", "2025-08-05 09:30:00", "2025-08-05 10:30:00"},
		{"内側に含まれる", "2025-08-05 10:15:00", "2025-08-05 10:45:00"},
		{"外側から覆う", "2025-08-05 09:00:00", "2025-08-05 12:00:00"},
		{"完全一致", "2025-08-05 10:00:00", "2025-08-05 11:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.create(env.ownerA.ID, tt.start, tt.end)
			assert.ErrorIs(t, err, reservation.ErrOverlapConflict)
			assert.Equal(t, reservation.OverlapMessage, err.Error())
		})
	}

	assert.Equal(t, 1, env.countFor(t, env.ownerA.ID))
}

func TestScenario_ConcurrentIdenticalRequests(t *testing.T) {
	env := setupScenarioEnv(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = env.create(env.ownerA.ID, "2025-08-05 10:00:00", "2025-08-05 11:00:00")
		}(i)
	}
	close(start)
	wg.Wait()

	success, conflict := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, reservation.ErrOverlapConflict):
			conflict++
		default:
			t.Errorf("予期しないエラー: %v", err)
		}
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, 1, conflict)
	assert.Equal(t, 1, env.countFor(t, env.ownerA.ID))
}

// TestScenario_ManyConcurrentRequests は多数の重なり合う要求を同時に流しても
// 同一オーナーの確定済み予約が互いに重ならないことを確認する
func TestScenario_ManyConcurrentRequests(t *testing.T) {
	env := setupScenarioEnv(t)
	const workers = 50

	var successCount, conflictCount int32
	var wg sync.WaitGroup
	base := ts("2025-08-05 09:00:00")
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ownerID := env.ownerA.ID
			if i%5 == 0 {
				ownerID = env.ownerB.ID
			}
			// 15分刻みでずらした45分の枠は隣同士で重なる
			startAt := base.Add(time.Duration(i%8) * 15 * time.Minute)
			_, err := env.svc.CreateReservation(context.Background(), CreateReservationInput{
				OwnerID:  ownerID,
				ClientID: env.client.ID,
				Title:    fmt.Sprintf("枠%d", i),
				StartAt:  startAt,
				EndAt:    startAt.Add(45 * time.Minute),
			})
			switch {
			case err == nil:
				atomic.AddInt32(&successCount, 1)
			case errors.Is(err, reservation.ErrOverlapConflict):
				atomic.AddInt32(&conflictCount, 1)
			default:
				t.Errorf("予期しないエラー: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(workers), successCount+conflictCount)
	assert.Positive(t, successCount)

	views, err := env.svc.ListByWindow(context.Background(), reservation.NewInterval(base.Add(-time.Hour), base.Add(6*time.Hour)))
	require.NoError(t, err)
	assert.Len(t, views, int(successCount))
	for i := range views {
		for j := i + 1; j < len(views); j++ {
			assert.False(t, views[i].Overlaps(views[j].Reservation),
				"重なる予約が確定している: %s と %s", views[i].ID, views[j].ID)
		}
	}
}

func TestScenario_WeekWindowListing(t *testing.T) {
	env := setupScenarioEnv(t)

	fixtures := []struct {
		name       string
		start, end string
		included   bool
	}{
		{"週の最初", "2025-08-04 00:00:00", "2025-08-04 01:00:00", true},
		{"週の最後の1時間", "2025-08-10 23:00:00", "2025-08-10 23:59:59", true},
		{"翌週にまたがる", "2025-08-10 23:59:59", "2025-08-11 00:59:59", true},
		{"前週からまたがる", "2025-08-03 23:59:59", "2025-08-04 00:59:59", true},
		{"翌週の最初", "2025-08-11 00:00:00", "2025-08-11 01:00:00", false},
		{"週の開始で終わる", "2025-08-03 23:00:00", "2025-08-04 00:00:00", false},
	}
	// 時間帯が重なる枠があるため枠ごとにオーナーを分ける
	wantIDs := map[string]string{}
	for i, f := range fixtures {
		o, err := env.directory.CreateOwner(context.Background(), fmt.Sprintf("担当%d", i))
		require.NoError(t, err)
		res, err := env.create(o.ID, f.start, f.end)
		require.NoError(t, err, f.name)
		if f.included {
			wantIDs[res.ID] = f.name
		}
	}

	views, week, err := env.svc.ListWeek(context.Background(), ts("2025-08-06 12:00:00"))
	require.NoError(t, err)
	assert.Equal(t, ts("2025-08-04 00:00:00"), week.Start)
	assert.Equal(t, ts("2025-08-11 00:00:00"), week.End)

	gotIDs := map[string]bool{}
	for _, v := range views {
		gotIDs[v.ID] = true
	}
	for id, name := range wantIDs {
		assert.True(t, gotIDs[id], "%s が含まれていない", name)
	}
	assert.Len(t, views, len(wantIDs))

	for i := 1; i < len(views); i++ {
		assert.False(t, views[i].StartAt.Before(views[i-1].StartAt), "開始時刻の昇順ではない")
	}
	assert.Equal(t, "山田商事", views[0].ClientName)
}

func TestScenario_AdvisoryThenAuthoritative(t *testing.T) {
	env := setupScenarioEnv(t)
	ctx := context.Background()

	res, err := env.create(env.ownerA.ID, "2025-08-05 10:00:00", "2025-08-05 11:00:00")
	require.NoError(t, err)

	err = env.svc.CheckOverlap(ctx, env.ownerA.ID, ts("2025-08-05 10:30:00"), ts("2025-08-05 11:30:00"), "")
	assert.ErrorIs(t, err, reservation.ErrAdvisoryConflict)

	// 自分自身を除外すれば重複しない
	err = env.svc.CheckOverlap(ctx, env.ownerA.ID, ts("2025-08-05 10:30:00"), ts("2025-08-05 11:30:00"), res.ID)
	assert.NoError(t, err)

	got, err := env.svc.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "佐藤", got.OwnerName)
}

func TestScenario_LockWaitCancelled(t *testing.T) {
	store := memory.NewStore()
	directory := NewDirectoryService(memory.NewOwnerRepository(store), memory.NewClientRepository(store))
	ctx := context.Background()
	o, err := directory.CreateOwner(ctx, "佐藤")
	require.NoError(t, err)
	c, err := directory.CreateClient(ctx, "山田商事")
	require.NoError(t, err)

	txm := memory.NewTxManager(store)
	repo := memory.NewReservationRepository(store)
	svc := NewReservationService(txm, repo, nil, nil, 0)

	// 別のトランザクションが同じ区間のロックを保持したままにする
	holder, err := txm.Begin(ctx)
	require.NoError(t, err)
	defer holder.Rollback() //nolint:errcheck
	_, err = repo.LockOverlapping(ctx, holder, o.ID, reservation.NewInterval(ts("2025-08-05 10:00:00"), ts("2025-08-05 11:00:00")))
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = svc.CreateReservation(waitCtx, CreateReservationInput{
		OwnerID:  o.ID,
		ClientID: c.ID,
		Title:    "待機",
		StartAt:  ts("2025-08-05 10:30:00"),
		EndAt:    ts("2025-08-05 11:30:00"),
	})

	assert.ErrorIs(t, err, reservation.ErrPersistenceFailure)
	assert.NotErrorIs(t, err, reservation.ErrOverlapConflict)
}
