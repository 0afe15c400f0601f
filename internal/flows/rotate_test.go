package flows

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/ethr-lab/tokenroll/token"
)

type fakeStore struct {
	records map[string]*token.Record

	putErr        error
	invalidateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*token.Record)}
}

func (s *fakeStore) Get(_ context.Context, tok string) (*token.Record, error) {
	rec, ok := s.records[tok]
	if !ok {
		return nil, token.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) Put(_ context.Context, tok string, rec *token.Record, _ time.Duration) error {
	if s.putErr != nil {
		return s.putErr
	}
	cp := *rec
	s.records[tok] = &cp
	return nil
}

func (s *fakeStore) InvalidateAndFetchPrevious(_ context.Context, tok string) (*token.Record, error) {
	if s.invalidateErr != nil {
		return nil, s.invalidateErr
	}
	rec, ok := s.records[tok]
	if !ok {
		return nil, token.ErrRecordNotFound
	}
	prev := *rec
	rec.Valid = false
	return &prev, nil
}

type fakeMinter struct {
	accessErr  error
	refreshErr error
	minted     int
}

func (m *fakeMinter) MintAccess(_ context.Context, subjectID string) (string, error) {
	if m.accessErr != nil {
		return "", m.accessErr
	}
	return "access-for-" + subjectID, nil
}

func (m *fakeMinter) MintRefresh(_ context.Context, _ string) (MintedRefresh, error) {
	if m.refreshErr != nil {
		return MintedRefresh{}, m.refreshErr
	}
	m.minted++
	return MintedRefresh{
		Token:     "refresh-" + strconv.Itoa(m.minted),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func TestRunRotateSuccess(t *testing.T) {
	store := newFakeStore()
	store.records["old"] = token.NewRecord("alice", time.Now().Add(time.Hour))

	res := RunRotate(context.Background(), "old", RotateDeps{
		Store:  store,
		Minter: &fakeMinter{},
	})

	if res.Failure != RotateFailureNone {
		t.Fatalf("unexpected failure %v: %v", res.Failure, res.Err)
	}
	if res.SubjectID != "alice" || res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("incomplete result: %+v", res)
	}

	if store.records["old"].Valid {
		t.Fatal("presented token still valid after rotation")
	}
	newRec, ok := store.records[res.RefreshToken]
	if !ok || !newRec.Valid || newRec.SubjectID != "alice" {
		t.Fatalf("replacement record missing or wrong: %+v", newRec)
	}
}

func TestRunRotateReuse(t *testing.T) {
	store := newFakeStore()
	rec := token.NewRecord("alice", time.Now().Add(time.Hour))
	rec.Valid = false
	store.records["spent"] = rec

	res := RunRotate(context.Background(), "spent", RotateDeps{
		Store:  store,
		Minter: &fakeMinter{},
	})

	if res.Failure != RotateFailureReuse {
		t.Fatalf("expected RotateFailureReuse, got %v", res.Failure)
	}
	if res.SubjectID != "alice" {
		t.Fatalf("reuse result must carry the subject, got %q", res.SubjectID)
	}
}

func TestRunRotateExpired(t *testing.T) {
	store := newFakeStore()
	store.records["old"] = token.NewRecord("alice", time.Now().Add(time.Minute))

	res := RunRotate(context.Background(), "old", RotateDeps{
		Store:  store,
		Minter: &fakeMinter{},
		Now:    func() time.Time { return time.Now().Add(time.Hour) },
	})

	if res.Failure != RotateFailureExpired {
		t.Fatalf("expected RotateFailureExpired, got %v", res.Failure)
	}
	// The expired record must still have been flipped.
	if store.records["old"].Valid {
		t.Fatal("expired record left valid")
	}
}

func TestRunRotateNotFound(t *testing.T) {
	res := RunRotate(context.Background(), "nope", RotateDeps{
		Store:  newFakeStore(),
		Minter: &fakeMinter{},
	})
	if res.Failure != RotateFailureNotFound {
		t.Fatalf("expected RotateFailureNotFound, got %v", res.Failure)
	}
}

func TestRunRotateStoreError(t *testing.T) {
	store := newFakeStore()
	store.invalidateErr = token.ErrUnavailable

	res := RunRotate(context.Background(), "tok", RotateDeps{
		Store:  store,
		Minter: &fakeMinter{},
	})
	if res.Failure != RotateFailureStore {
		t.Fatalf("expected RotateFailureStore, got %v", res.Failure)
	}
}

func TestRunRotateCorrupt(t *testing.T) {
	store := newFakeStore()
	store.invalidateErr = token.ErrRecordCorrupt

	res := RunRotate(context.Background(), "tok", RotateDeps{
		Store:  store,
		Minter: &fakeMinter{},
	})
	if res.Failure != RotateFailureCorrupt {
		t.Fatalf("expected RotateFailureCorrupt, got %v", res.Failure)
	}
}

func TestRunRotateMintFailureIsTerminal(t *testing.T) {
	store := newFakeStore()
	store.records["old"] = token.NewRecord("alice", time.Now().Add(time.Hour))

	res := RunRotate(context.Background(), "old", RotateDeps{
		Store:  store,
		Minter: &fakeMinter{accessErr: errors.New("hsm down")},
	})

	if res.Failure != RotateFailureMint {
		t.Fatalf("expected RotateFailureMint, got %v", res.Failure)
	}
	if store.records["old"].Valid {
		t.Fatal("presented token must stay invalidated after mint failure")
	}
}

func TestRunRotatePersistFailure(t *testing.T) {
	store := newFakeStore()
	store.records["old"] = token.NewRecord("alice", time.Now().Add(time.Hour))
	store.putErr = token.ErrUnavailable

	res := RunRotate(context.Background(), "old", RotateDeps{
		Store:  store,
		Minter: &fakeMinter{},
	})
	if res.Failure != RotateFailurePersist {
		t.Fatalf("expected RotateFailurePersist, got %v", res.Failure)
	}
}

func TestRunRotateDetachesContextPastInvalidate(t *testing.T) {
	store := newFakeStore()
	store.records["old"] = token.NewRecord("alice", time.Now().Add(time.Hour))

	detached := false
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := RunRotate(ctx, "old", RotateDeps{
		Store:  store,
		Minter: &fakeMinter{},
		Detach: func(ctx context.Context) context.Context {
			detached = true
			return context.WithoutCancel(ctx)
		},
	})

	if !detached {
		t.Fatal("Detach was not invoked")
	}
	if res.Failure != RotateFailureNone {
		t.Fatalf("cancelled caller must not abort a started rotation: %v", res.Failure)
	}
}

func TestRunIssueSuccess(t *testing.T) {
	store := newFakeStore()

	res := RunIssue(context.Background(), "alice", IssueDeps{
		Store:  store,
		Minter: &fakeMinter{},
	})

	if res.Failure != IssueFailureNone {
		t.Fatalf("unexpected failure %v: %v", res.Failure, res.Err)
	}
	rec, ok := store.records[res.RefreshToken]
	if !ok || !rec.Valid || rec.SubjectID != "alice" {
		t.Fatalf("issued record missing or wrong: %+v", rec)
	}
}

func TestRunIssueMintFailure(t *testing.T) {
	res := RunIssue(context.Background(), "alice", IssueDeps{
		Store:  newFakeStore(),
		Minter: &fakeMinter{refreshErr: errors.New("entropy exhausted")},
	})
	if res.Failure != IssueFailureMint {
		t.Fatalf("expected IssueFailureMint, got %v", res.Failure)
	}
}

func TestRunValidateStates(t *testing.T) {
	store := newFakeStore()
	now := time.Now()

	live := token.NewRecord("alice", now.Add(time.Hour))
	store.records["live"] = live

	spent := token.NewRecord("bob", now.Add(time.Hour))
	spent.Valid = false
	store.records["spent"] = spent

	stale := token.NewRecord("carol", now.Add(-time.Minute))
	store.records["stale"] = stale

	cases := []struct {
		tok  string
		want ValidateFailureKind
	}{
		{"live", ValidateFailureNone},
		{"spent", ValidateFailureInvalidated},
		{"stale", ValidateFailureExpired},
		{"missing", ValidateFailureNotFound},
	}

	for _, tc := range cases {
		res := RunValidate(context.Background(), tc.tok, ValidateDeps{Store: store})
		if res.Failure != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.tok, res.Failure, tc.want)
		}
	}

	if res := RunValidate(context.Background(), "live", ValidateDeps{Store: store}); res.SubjectID != "alice" {
		t.Fatalf("live validate subject = %q, want alice", res.SubjectID)
	}
}
