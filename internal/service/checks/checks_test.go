package checks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/checksheet/internal/apperrors"
	"github.com/mamadbah2/checksheet/internal/domain/models"
	"github.com/mamadbah2/checksheet/internal/storetest"
)

const container = "MSKU1"

var (
	caseLength = models.Property{ID: 1, Name: "Case Length", Category: models.CategoryCaseDimensions, Type: models.PropertyDimension}
	labelText  = models.Property{ID: 2, Name: "Label", Category: "labels", Type: models.PropertyText}
)

func seededStore(items ...models.Item) *storetest.Store {
	store := storetest.New()
	store.Items[container] = items
	return store
}

func item(code, po string) models.Item {
	return models.Item{ItemCode: code, PurchaseOrderNumber: models.FlexString(po), TrackingNumber: container}
}

func baseCheck(code, po string) models.ItemPropertyCheck {
	return models.ItemPropertyCheck{
		UserID:              7,
		ItemCode:            code,
		ContainerCode:       container,
		Status:              models.StatusPass,
		Notes:               "12.5",
		PurchaseOrderNumber: models.FlexString(po),
	}
}

func TestRecordNonDimensionWritesOnlyOwnItem(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"), item("1234-BLK-R", "100"))
	engine := NewEngine(store, store, nil)

	check := baseCheck("1234-BLK-Q", "100")
	check.PropertyID = labelText.ID
	out, err := engine.Record(context.Background(), check, labelText)
	require.NoError(t, err)

	assert.NotZero(t, out.Check.ID)
	assert.Len(t, store.ChecksFor("1234-BLK-Q", labelText.ID), 1)
	assert.Empty(t, store.ChecksFor("1234-BLK-R", labelText.ID))
	assert.Zero(t, store.CallCount("ListItemsByContainer"))
}

func TestRecordDimensionPropagatesToSiblings(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"), item("1234-BLK-R", "100"), item("1234-BLK-A", "100"))
	engine := NewEngine(store, store, nil)

	check := baseCheck("1234-BLK-Q", "100")
	check.PropertyID = caseLength.ID
	out, err := engine.Record(context.Background(), check, caseLength)
	require.NoError(t, err)

	assert.Len(t, out.Written, 2)
	assert.Equal(t, "1234-BLK-Q", out.Check.ItemCode)
	require.Len(t, store.ChecksFor("1234-BLK-R", caseLength.ID), 1)
	assert.Equal(t, "12.5", store.ChecksFor("1234-BLK-R", caseLength.ID)[0].Notes)
	assert.Empty(t, store.ChecksFor("1234-BLK-A", caseLength.ID))
}

func TestRecordTwiceIsIdempotent(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"), item("1234-BLK-R", "100"))
	engine := NewEngine(store, store, nil)

	check := baseCheck("1234-BLK-Q", "100")
	check.PropertyID = caseLength.ID
	_, err := engine.Record(context.Background(), check, caseLength)
	require.NoError(t, err)

	check.Notes = "13"
	check.Status = models.StatusFail
	_, err = engine.Record(context.Background(), check, caseLength)
	require.NoError(t, err)

	for _, code := range []string{"1234-BLK-Q", "1234-BLK-R"} {
		stored := store.ChecksFor(code, caseLength.ID)
		require.Len(t, stored, 1, code)
		assert.Equal(t, "13", stored[0].Notes)
		assert.Equal(t, models.StatusFail, stored[0].Status)
	}
	assert.Equal(t, 2, store.CallCount("CreateCheck"))
	assert.Equal(t, 2, store.CallCount("UpdateCheck"))
}

func TestRecordSameCodeUnderAnotherPurchaseOrderIsSibling(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"), item("1234-BLK-Q", "200"))
	engine := NewEngine(store, store, nil)

	check := baseCheck("1234-BLK-Q", "100")
	check.PropertyID = caseLength.ID
	out, err := engine.Record(context.Background(), check, caseLength)
	require.NoError(t, err)

	assert.Len(t, out.Written, 2)
	assert.Equal(t, models.FlexString("100"), out.Check.PurchaseOrderNumber)

	stored := store.ChecksFor("1234-BLK-Q", caseLength.ID)
	require.Len(t, stored, 2)
	pos := []models.FlexString{stored[0].PurchaseOrderNumber, stored[1].PurchaseOrderNumber}
	assert.ElementsMatch(t, []models.FlexString{"100", "200"}, pos)
}

func TestRecordSiblingUsesSiblingPurchaseOrder(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"), item("1234-BLK-R", "200"))
	engine := NewEngine(store, store, nil)

	check := baseCheck("1234-BLK-Q", "100")
	check.PropertyID = caseLength.ID
	_, err := engine.Record(context.Background(), check, caseLength)
	require.NoError(t, err)

	stored := store.ChecksFor("1234-BLK-R", caseLength.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, models.FlexString("200"), stored[0].PurchaseOrderNumber)
}

func TestRecordWithoutSiblingsBehavesAsSingle(t *testing.T) {
	store := seededStore(item("1234-BLK-X", "100"), item("1234-BLK-Y", "100"))
	engine := NewEngine(store, store, nil)

	check := baseCheck("1234-BLK-X", "100")
	check.PropertyID = caseLength.ID
	out, err := engine.Record(context.Background(), check, caseLength)
	require.NoError(t, err)
	assert.Len(t, out.Written, 1)
	assert.Len(t, store.ChecksFor("1234-BLK-X", caseLength.ID), 1)
}

func TestRecordSiblingFailureIsBestEffort(t *testing.T) {
	store := seededStore(item("1234-BLK-N", "100"), item("1234-BLK-T", "100"), item("1234-BLK-U", "100"))
	store.FailWrites["1234-BLK-T"] = apperrors.New(apperrors.KindRemoteUnavailable, "down")
	engine := NewEngine(store, store, nil)

	check := baseCheck("1234-BLK-N", "100")
	check.PropertyID = caseLength.ID
	out, err := engine.Record(context.Background(), check, caseLength)
	require.NoError(t, err)

	assert.Len(t, out.Written, 2)
	assert.Equal(t, []models.MissingItem{{ItemCode: "1234-BLK-T", PONumber: "100"}}, out.Failed)
	assert.Len(t, store.ChecksFor("1234-BLK-U", caseLength.ID), 1)
}

func TestRecordOriginFailureIsReported(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"), item("1234-BLK-R", "100"))
	store.FailWrites["1234-BLK-Q"] = apperrors.New(apperrors.KindRemoteUnavailable, "down")
	engine := NewEngine(store, store, nil)

	check := baseCheck("1234-BLK-Q", "100")
	check.PropertyID = caseLength.ID
	_, err := engine.Record(context.Background(), check, caseLength)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindRemoteUnavailable))
	assert.Len(t, store.ChecksFor("1234-BLK-R", caseLength.ID), 1, "siblings are still written")
}

func TestRecordFetchFailureDoesNotCreate(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"))
	store.FailLists["1234-BLK-Q"] = apperrors.New(apperrors.KindRemoteUnavailable, "down")
	engine := NewEngine(store, store, nil)

	check := baseCheck("1234-BLK-Q", "100")
	check.PropertyID = labelText.ID
	_, err := engine.Record(context.Background(), check, labelText)
	require.Error(t, err)
	assert.Zero(t, store.CallCount("CreateCheck"))
}

func TestRecordRefreshesDateChecked(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"))
	engine := NewEngine(store, store, nil)
	fixed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return fixed }

	check := baseCheck("1234-BLK-Q", "100")
	check.PropertyID = labelText.ID
	check.DateChecked = fixed.Add(-48 * time.Hour)
	out, err := engine.Record(context.Background(), check, labelText)
	require.NoError(t, err)
	assert.Equal(t, fixed, out.Check.DateChecked)
}

func TestNormalizeEntry(t *testing.T) {
	textile := models.Property{ID: 3, Name: "Textile", Type: models.PropertySelect, Options: []models.Option{{Name: "Textile", Value: "TEXTILE"}}}
	packing := models.Property{ID: 4, Name: "Packing Order", Type: models.PropertyPackingOrder}
	dateCode := models.Property{ID: 5, Name: "Date Code", Type: models.PropertyDateCode}

	tests := []struct {
		name    string
		prop    models.Property
		entry   Entry
		want    string
		wantErr bool
	}{
		{name: "text is upper-cased", prop: labelText, entry: Entry{Status: models.StatusPass, Value: "torn label"}, want: "TORN LABEL"},
		{name: "status required", prop: labelText, entry: Entry{Value: "x"}, wantErr: true},
		{name: "packing pass needs manifest", prop: packing, entry: Entry{Status: models.StatusPass}, wantErr: true},
		{name: "packing pass when satisfied", prop: packing, entry: Entry{Status: models.StatusPass, PackingSatisfied: true}},
		{name: "packing fail always allowed", prop: packing, entry: Entry{Status: models.StatusFail}},
		{name: "select needs value", prop: textile, entry: Entry{Status: models.StatusFail}, wantErr: true},
		{name: "select unknown option", prop: textile, entry: Entry{Status: models.StatusPass, Value: "LEATHER"}, wantErr: true},
		{name: "select known option", prop: textile, entry: Entry{Status: models.StatusPass, Value: "TEXTILE"}, want: "TEXTILE"},
		{name: "date code valid", prop: dateCode, entry: Entry{Status: models.StatusPass, Value: "a15b"}, want: "A15B"},
		{name: "date code day zero", prop: dateCode, entry: Entry{Status: models.StatusPass, Value: "A00B"}, wantErr: true},
		{name: "date code day too high", prop: dateCode, entry: Entry{Status: models.StatusPass, Value: "A32B"}, wantErr: true},
		{name: "date code bad shape", prop: dateCode, entry: Entry{Status: models.StatusPass, Value: "115B"}, wantErr: true},
		{name: "date code fail skips format", prop: dateCode, entry: Entry{Status: models.StatusFail, Value: "??"}, want: "??"},
		{name: "dimension numeric", prop: caseLength, entry: Entry{Status: models.StatusPass, Value: " 12.5 "}, want: "12.5"},
		{name: "dimension empty", prop: caseLength, entry: Entry{Status: models.StatusPass}, wantErr: true},
		{name: "dimension not numeric", prop: caseLength, entry: Entry{Status: models.StatusPass, Value: "long"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEntry(tt.prop, tt.entry)
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.KindValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGateCoalescesWithinWindow(t *testing.T) {
	gate := NewGate(300 * time.Millisecond)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }

	runs := 0
	fn := func() (any, error) { runs++; return runs, nil }

	v, err, coalesced := gate.Do("k", "p", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, coalesced)

	now = now.Add(100 * time.Millisecond)
	v, _, coalesced = gate.Do("k", "p", fn)
	assert.Equal(t, 1, v)
	assert.True(t, coalesced)

	_, _, coalesced = gate.Do("other", "p", fn)
	assert.False(t, coalesced)

	now = now.Add(time.Second)
	v, _, _ = gate.Do("k", "p", fn)
	assert.Equal(t, 3, v)
}

func TestGateNewPayloadReplacesRememberedResult(t *testing.T) {
	gate := NewGate(300 * time.Millisecond)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }

	var ran []string
	run := func(payload string) (any, bool) {
		v, err, coalesced := gate.Do("scope", payload, func() (any, error) {
			ran = append(ran, payload)
			return payload, nil
		})
		require.NoError(t, err)
		return v, coalesced
	}

	run("Pass")
	now = now.Add(50 * time.Millisecond)
	run("Fail")
	now = now.Add(50 * time.Millisecond)
	v, coalesced := run("Pass")

	assert.Equal(t, "Pass", v)
	assert.False(t, coalesced)
	assert.Equal(t, []string{"Pass", "Fail", "Pass"}, ran)
}

func TestGateDoesNotCacheFailures(t *testing.T) {
	gate := NewGate(time.Minute)
	calls := 0
	boom := errors.New("boom")
	fn := func() (any, error) { calls++; return nil, boom }

	_, err, _ := gate.Do("k", "p", fn)
	assert.ErrorIs(t, err, boom)
	_, err, _ = gate.Do("k", "p", fn)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestGateJoinsInFlight(t *testing.T) {
	gate := NewGate(0)
	release := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	runs := 0

	fn := func() (any, error) {
		mu.Lock()
		runs++
		mu.Unlock()
		close(started)
		<-release
		return "done", nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, _ = gate.Do("k", "p", fn)
	}()
	<-started

	results := make(chan bool, 1)
	go func() {
		_, _, shared := gate.Do("k", "p", func() (any, error) { return "second", nil })
		results <- shared
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.True(t, <-results)
	assert.Equal(t, 1, runs)
}

func TestServiceSaveValidatesAndRecords(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"), item("1234-BLK-R", "100"))
	svc := NewService(store, store, 300*time.Millisecond, nil)
	subject := Subject{UserID: 7, ContainerCode: container, Item: item("1234-BLK-Q", "100")}

	_, err := svc.Save(context.Background(), subject, caseLength, Entry{Status: models.StatusPass, Value: "abc"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Zero(t, store.CallCount("CreateCheck"))

	out, err := svc.Save(context.Background(), subject, caseLength, Entry{Status: models.StatusPass, Value: "30"})
	require.NoError(t, err)
	assert.Len(t, out.Written, 2)

	// an identical rapid re-trigger does not hit the store again
	_, err = svc.Save(context.Background(), subject, caseLength, Entry{Status: models.StatusPass, Value: "30"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.CallCount("CreateCheck"))
	assert.Zero(t, store.CallCount("UpdateCheck"))

	latest, err := svc.Latest(context.Background(), subject)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "30", latest[0].Notes)
}

func TestServiceSaveRevertWithinWindowIsWritten(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"))
	svc := NewService(store, store, 300*time.Millisecond, nil)
	subject := Subject{UserID: 7, ContainerCode: container, Item: item("1234-BLK-Q", "100")}

	for _, status := range []models.CheckStatus{models.StatusPass, models.StatusFail, models.StatusPass} {
		_, err := svc.Save(context.Background(), subject, labelText, Entry{Status: status, Value: "ok"})
		require.NoError(t, err)
	}

	stored := store.ChecksFor("1234-BLK-Q", labelText.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, models.StatusPass, stored[0].Status)
	assert.Equal(t, 2, store.CallCount("UpdateCheck"))
}

// cancelAwareStore fails reads once the caller's context is done.
type cancelAwareStore struct {
	*storetest.Store
}

func (s cancelAwareStore) ListChecks(ctx context.Context, scope models.Scope) ([]models.ItemPropertyCheck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.ListChecks(ctx, scope)
}

func TestServiceSaveOutlivesCancelledCaller(t *testing.T) {
	store := seededStore(item("1234-BLK-Q", "100"))
	repo := cancelAwareStore{Store: store}
	svc := NewService(repo, repo, 300*time.Millisecond, nil)
	subject := Subject{UserID: 7, ContainerCode: container, Item: item("1234-BLK-Q", "100")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Save(ctx, subject, labelText, Entry{Status: models.StatusPass, Value: "ok"})
	require.NoError(t, err)
	assert.Len(t, store.ChecksFor("1234-BLK-Q", labelText.ID), 1)
}
