package machine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
)

func rate(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func laser() *machine.Machine {
	return &machine.Machine{
		MachineID:   "MC-LSR-00003",
		Name:        "Laser cutter",
		TypeCode:    "LSR",
		Status:      machine.StatusAvailable,
		HourlyRate:  rate("30.00"),
		SetupRate:   rate("20.00"),
		CleanupRate: rate("12.00"),
	}
}

func carol(withJob bool) *session.Session {
	sess := &session.Session{User: identity.User{Username: "carol", FullName: "Carol Ng"}}
	if withJob {
		sess.ActiveJob = &job.Job{ID: uuid.New(), JobID: "J-PROJ-00010001", ProjectName: "Signage"}
	}

	return sess
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(store *memStore) (*machine.Service, *clock) {
	c := &clock{t: time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)}
	return machine.NewService(store, nil, nil).WithClock(c.now), c
}

func TestService_UsageLifecycle(t *testing.T) {
	m := laser()
	store := newMemStore(m)
	store.certify("carol", m)
	svc, clk := newService(store)
	sess := carol(true)
	ctx := context.Background()
	started := clk.t

	u, err := svc.StartUsage(ctx, sess, "MC-LSR-00003", machine.StartParams{SetupMinutes: 15, EstimatedMinutes: 60, Notes: "acrylic"})
	require.NoError(t, err)

	assert.Equal(t, "J-PROJ-00010001", u.JobReference)
	assert.Equal(t, "Carol Ng", u.OperatorName)
	assert.Equal(t, "5.00", u.SetupCost.StringFixed(2))

	inUse := store.machines["MC-LSR-00003"]
	assert.Equal(t, machine.StatusInUse, inUse.Status)
	require.NotNil(t, inUse.CurrentJobID)
	assert.Equal(t, sess.ActiveJob.ID, *inUse.CurrentJobID)
	require.NotNil(t, inUse.ReservedUntil)
	assert.Equal(t, started.Add(75*time.Minute), *inUse.ReservedUntil)
	assert.Equal(t, 1, store.openUsages(m.ID))

	clk.t = started.Add(50 * time.Minute)

	u, err = svc.StopUsage(ctx, sess, "MC-LSR-00003", machine.StopParams{CleanupMinutes: 10, Notes: "lens cleaned"})
	require.NoError(t, err)

	require.NotNil(t, u.EndTime)
	assert.Equal(t, clk.t, *u.EndTime)
	assert.Equal(t, 10, u.CleanupMinutes)
	assert.Equal(t, "25.00", u.OperationCost.StringFixed(2))
	assert.Equal(t, "2.00", u.CleanupCost.StringFixed(2))
	assert.Equal(t, "32.00", u.TotalCost.StringFixed(2))
	assert.Equal(t, "acrylic\n\nStop notes: lens cleaned", u.Notes)

	freed := store.machines["MC-LSR-00003"]
	assert.Equal(t, machine.StatusAvailable, freed.Status)
	assert.Nil(t, freed.CurrentJobID)
	assert.Nil(t, freed.ReservedUntil)
	assert.Zero(t, store.openUsages(m.ID))

	require.Len(t, store.activity, 2)
	for _, e := range store.activity {
		assert.Equal(t, activity.TypeMachineUsage, e.Type)
		assert.Equal(t, sess.ActiveJob.ID, e.JobID)
	}
}

func TestService_StartUsage(t *testing.T) {
	t.Run("BlockedStatuses", func(t *testing.T) {
		for _, status := range []machine.Status{machine.StatusInUse, machine.StatusMaintenance, machine.StatusOutOfOrder} {
			t.Run(string(status), func(t *testing.T) {
				m := laser()
				m.Status = status
				store := newMemStore(m)
				store.certify("carol", m)
				svc, _ := newService(store)

				_, err := svc.StartUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StartParams{SetupMinutes: 15})
				require.ErrorIs(t, err, machine.ErrUnavailable)

				assert.Empty(t, store.usages)
				assert.Equal(t, status, store.machines["MC-LSR-00003"].Status)
			})
		}
	})

	t.Run("NoOperatorProfile", func(t *testing.T) {
		store := newMemStore(laser())
		svc, _ := newService(store)

		_, err := svc.StartUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StartParams{})
		require.ErrorIs(t, err, machine.ErrNotCertified)
		require.ErrorIs(t, err, machine.ErrNoOperator)

		assert.Empty(t, store.usages)
	})

	t.Run("NotCertifiedBeatsMissingJob", func(t *testing.T) {
		m := laser()
		other := &machine.Machine{MachineID: "MC-CNC-00001", Status: machine.StatusAvailable}
		store := newMemStore(m, other)
		store.certify("carol", other)
		svc, _ := newService(store)

		_, err := svc.StartUsage(context.Background(), carol(false), "MC-LSR-00003", machine.StartParams{})
		require.ErrorIs(t, err, machine.ErrNotCertified)
	})

	t.Run("RequiresActiveJob", func(t *testing.T) {
		m := laser()
		store := newMemStore(m)
		store.certify("carol", m)
		svc, _ := newService(store)

		_, err := svc.StartUsage(context.Background(), carol(false), "MC-LSR-00003", machine.StartParams{})
		require.ErrorIs(t, err, job.ErrNoActiveJob)

		assert.Empty(t, store.usages)
		assert.Equal(t, machine.StatusAvailable, store.machines["MC-LSR-00003"].Status)
	})

	t.Run("SecondStartIsRejected", func(t *testing.T) {
		m := laser()
		store := newMemStore(m)
		store.certify("carol", m)
		store.certify("dave", m)
		svc, _ := newService(store)

		_, err := svc.StartUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StartParams{})
		require.NoError(t, err)

		dave := carol(true)
		dave.User = identity.User{Username: "dave"}

		_, err = svc.StartUsage(context.Background(), dave, "MC-LSR-00003", machine.StartParams{})
		require.ErrorIs(t, err, machine.ErrUnavailable)
		assert.Equal(t, 1, store.openUsages(m.ID))
	})

	t.Run("UnsetRatesCostNothing", func(t *testing.T) {
		m := laser()
		m.HourlyRate, m.SetupRate, m.CleanupRate = decimal.NullDecimal{}, decimal.NullDecimal{}, decimal.NullDecimal{}
		store := newMemStore(m)
		store.certify("carol", m)
		svc, clk := newService(store)

		_, err := svc.StartUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StartParams{SetupMinutes: 30})
		require.NoError(t, err)

		clk.t = clk.t.Add(time.Hour)

		u, err := svc.StopUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StopParams{CleanupMinutes: 5})
		require.NoError(t, err)
		assert.True(t, u.TotalCost.IsZero())
	})

	t.Run("NegativeMinutes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := machine.NewService(machine.NewMockRepository(ctrl), nil, nil)

		_, err := svc.StartUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StartParams{SetupMinutes: -1})
		require.ErrorIs(t, err, machine.ErrInvalidMinutes)
	})
}

func TestService_StopUsage(t *testing.T) {
	t.Run("NotInUse", func(t *testing.T) {
		store := newMemStore(laser())
		svc, _ := newService(store)

		_, err := svc.StopUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StopParams{})
		require.ErrorIs(t, err, machine.ErrNotInUse)
	})

	t.Run("InUseWithoutOpenUsage", func(t *testing.T) {
		m := laser()
		m.Status = machine.StatusInUse
		store := newMemStore(m)
		svc, _ := newService(store)

		_, err := svc.StopUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StopParams{})
		require.ErrorIs(t, err, machine.ErrNoOpenUsage)
		assert.Equal(t, machine.StatusInUse, store.machines["MC-LSR-00003"].Status)
	})

	t.Run("AnyoneMayStopByDefault", func(t *testing.T) {
		m := laser()
		store := newMemStore(m)
		store.certify("carol", m)
		svc, _ := newService(store)

		_, err := svc.StartUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StartParams{})
		require.NoError(t, err)

		stranger := &session.Session{User: identity.User{Username: "erin"}}

		u, err := svc.StopUsage(context.Background(), stranger, "MC-LSR-00003", machine.StopParams{})
		require.NoError(t, err)
		assert.False(t, u.Open())
	})

	t.Run("StopPolicyRejects", func(t *testing.T) {
		m := laser()
		store := newMemStore(m)
		store.certify("carol", m)
		svc, _ := newService(store)

		errNotYours := errors.New("not your session")
		svc.WithStopPolicy(func(sess *session.Session, u *machine.Usage) error {
			if u.OperatorName != sess.OperatorName() {
				return errNotYours
			}

			return nil
		})

		_, err := svc.StartUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StartParams{})
		require.NoError(t, err)

		_, err = svc.StopUsage(context.Background(), &session.Session{User: identity.User{Username: "erin"}}, "MC-LSR-00003", machine.StopParams{})
		require.ErrorIs(t, err, errNotYours)

		assert.Equal(t, machine.StatusInUse, store.machines["MC-LSR-00003"].Status)
		assert.Equal(t, 1, store.openUsages(m.ID))
	})
}

func TestService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	ids := machine.NewMockIDGenerator(ctrl)
	store := newMemStore()
	svc := machine.NewService(store, ids, nil)

	ids.EXPECT().Next(gomock.Any(), "MC-LSR").Return(int64(3), nil)

	m, err := svc.Register(context.Background(), machine.RegisterParams{Name: "Laser cutter", TypeCode: "lsr", HourlyRate: rate("30")})
	require.NoError(t, err)

	assert.Equal(t, "MC-LSR-00003", m.MachineID)
	assert.Equal(t, machine.StatusAvailable, m.Status)
	assert.Contains(t, store.machines, "MC-LSR-00003")

	require.NoError(t, svc.Certify(context.Background(), "carol", "MC-LSR-00003"))

	op, err := svc.Operator(context.Background(), "carol")
	require.NoError(t, err)
	assert.True(t, op.CanOperate(m))

	require.NoError(t, svc.Revoke(context.Background(), "carol", "MC-LSR-00003"))
	assert.False(t, op.CanOperate(m))

	available, err := svc.Available(context.Background())
	require.NoError(t, err)
	assert.Len(t, available, 1)
}

func TestService_Register_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params machine.RegisterParams
		want   error
	}{
		{"MissingName", machine.RegisterParams{TypeCode: "lsr"}, machine.ErrInvalid},
		{"MissingType", machine.RegisterParams{Name: "Laser cutter", TypeCode: "-"}, machine.ErrInvalid},
		{"NegativeHourlyRate", machine.RegisterParams{Name: "Laser cutter", TypeCode: "lsr", HourlyRate: rate("-1")}, machine.ErrInvalidRate},
		{"NegativeCleanupRate", machine.RegisterParams{Name: "Laser cutter", TypeCode: "lsr", CleanupRate: rate("-0.5")}, machine.ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			svc := machine.NewService(store, nil, nil)

			_, err := svc.Register(context.Background(), tt.params)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, store.machines)
		})
	}
}

func TestService_CommitFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := machine.NewMockRepository(ctrl)
	tx := machine.NewMockTx(ctrl)
	svc := machine.NewService(repo, nil, nil)

	m := laser()
	m.ID = uuid.New()

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().LockMachine(gomock.Any(), "MC-LSR-00003").Return(m, nil)
	tx.EXPECT().FindOperator(gomock.Any(), "carol").Return(&machine.Operator{Certified: []uuid.UUID{m.ID}}, true, nil)
	tx.EXPECT().CreateUsage(gomock.Any(), gomock.Any()).Return(nil)
	tx.EXPECT().UpdateState(gomock.Any(), gomock.Any()).Return(nil)
	tx.EXPECT().LogActivity(gomock.Any(), gomock.Any()).Return(nil)
	tx.EXPECT().Commit().Return(errors.New("serialization failure"))
	tx.EXPECT().Rollback().Return(nil)

	_, err := svc.StartUsage(context.Background(), carol(true), "MC-LSR-00003", machine.StartParams{})
	require.ErrorContains(t, err, "serialization failure")
}
