package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/checksheet/internal/apperrors"
	"github.com/mamadbah2/checksheet/internal/domain/models"
	"github.com/mamadbah2/checksheet/internal/storetest"
)

const (
	container = "MSKU1"
	userID    = 7
)

type fakeArchive struct {
	records []models.EvaluationRecord
	err     error
}

func (f *fakeArchive) SaveEvaluation(ctx context.Context, record models.EvaluationRecord) error {
	f.records = append(f.records, record)
	return f.err
}

func item(code, po string) models.Item {
	return models.Item{ItemCode: code, PurchaseOrderNumber: models.FlexString(po)}
}

func newStore(items ...models.Item) *storetest.Store {
	store := storetest.New()
	store.Items[container] = items
	store.Properties = []models.Property{{ID: 1, Name: "Case Length"}, {ID: 2, Name: "Label"}}
	return store
}

func addChecks(store *storetest.Store, it models.Item, statuses ...models.CheckStatus) {
	for i, st := range statuses {
		_, _ = store.CreateCheck(context.Background(), models.ItemPropertyCheck{
			UserID:              userID,
			PropertyID:          i + 1,
			ItemCode:            it.ItemCode,
			ContainerCode:       container,
			Status:              st,
			PurchaseOrderNumber: it.PurchaseOrderNumber,
		})
	}
}

func TestEvaluateAlreadyFinalizedShortCircuits(t *testing.T) {
	store := newStore(item("1234-BLK-Q", "100"))
	store.Finalized[container] = true
	archive := &fakeArchive{}

	res, err := NewEvaluator(store, archive, nil).Evaluate(context.Background(), userID, container)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyFinalized, res.Status)
	assert.Zero(t, store.FinalizeCalls)
	assert.Zero(t, store.CallCount("ListItemsByContainer"))
	assert.Empty(t, archive.records)
}

func TestEvaluateFinalizesWhenCountsMatch(t *testing.T) {
	q, r := item("1234-BLK-Q", "100"), item("1234-BLK-R", "100")
	store := newStore(q, r, item("1234-BLK-Z", "100"))
	addChecks(store, q, models.StatusPass, models.StatusFail)
	addChecks(store, r, models.StatusPass, models.StatusPass)
	archive := &fakeArchive{}

	res, err := NewEvaluator(store, archive, nil).Evaluate(context.Background(), userID, container)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, res.Status)
	assert.Equal(t, 4, res.Expected)
	assert.Equal(t, 4, res.Actual)
	assert.Empty(t, res.Missing)
	assert.Equal(t, 1, store.FinalizeCalls)
	require.Len(t, archive.records, 1)
	assert.Equal(t, "FINALIZED", archive.records[0].Status)
}

func TestEvaluateIncompleteListsMissing(t *testing.T) {
	q, aw := item("1234-BLK-Q", "100"), item("1234-BLK-AW", "200")
	store := newStore(q, aw, item("1234-BLK-ZZ", "100"))
	addChecks(store, q, models.StatusPass, models.StatusPass)
	addChecks(store, aw, models.StatusPass)

	res, err := NewEvaluator(store, nil, nil).Evaluate(context.Background(), userID, container)
	require.NoError(t, err)
	assert.Equal(t, StatusIncomplete, res.Status)
	assert.Equal(t, 4, res.Expected)
	assert.Equal(t, 3, res.Actual)
	assert.Equal(t, []models.MissingItem{{ItemCode: "1234-BLK-AW", PONumber: "200"}}, res.Missing)
	assert.Zero(t, store.FinalizeCalls)
}

func TestEvaluateIgnoresIrrelevantSuffixes(t *testing.T) {
	store := newStore(item("1234-BLK-X", "100"), item("1234-BLK-CASE", "100"))

	res, err := NewEvaluator(store, nil, nil).Evaluate(context.Background(), userID, container)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, res.Status)
	assert.Zero(t, res.Expected)
	assert.Zero(t, store.CallCount("ListChecks"))
}

func TestEvaluateCountOnlyComparison(t *testing.T) {
	// one item over-counted by a stray duplicate balances another item's gap
	q, r := item("1234-BLK-Q", "100"), item("1234-BLK-R", "100")
	store := newStore(q, r)
	addChecks(store, q, models.StatusPass, models.StatusPass)
	addChecks(store, q, models.StatusPass)
	addChecks(store, r, models.StatusPass)

	res, err := NewEvaluator(store, nil, nil).Evaluate(context.Background(), userID, container)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, res.Status)
}

func TestEvaluateRemoteFailure(t *testing.T) {
	store := newStore(item("1234-BLK-Q", "100"))
	store.Unavailable = apperrors.New(apperrors.KindRemoteUnavailable, "down")

	_, err := NewEvaluator(store, nil, nil).Evaluate(context.Background(), userID, container)
	assert.True(t, apperrors.Is(err, apperrors.KindRemoteUnavailable))
}

func TestEvaluateArchiveFailureIsNotFatal(t *testing.T) {
	store := newStore()
	archive := &fakeArchive{err: errors.New("mongo down")}

	res, err := NewEvaluator(store, archive, nil).Evaluate(context.Background(), userID, container)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, res.Status)
}

func TestProgress(t *testing.T) {
	q, r := item("1234-BLK-Q", "100"), item("1234-BLK-R", "100")
	store := newStore(q, r, item("1234-BLK-X", "100"))
	addChecks(store, q, models.StatusPass, models.StatusFail)
	addChecks(store, r, models.StatusPass, models.StatusNone)

	progress, err := NewEvaluator(store, nil, nil).Progress(context.Background(), userID, container, r)
	require.NoError(t, err)
	require.Len(t, progress, 2)

	assert.Equal(t, ItemProgress{ItemCode: "1234-BLK-Q", PONumber: "100", Done: 2, Total: 2}, progress[0])
	assert.True(t, progress[0].Complete())
	assert.Equal(t, 1, progress[1].Done)
	assert.True(t, progress[1].Current)
	assert.False(t, progress[1].Complete())
}

func TestIsRelevant(t *testing.T) {
	for _, code := range []string{"1-2-Q", "1-2-R", "1-2-A", "1-2-B", "1-2-AW", "1-2-BW", "1-2-T", "1-2-U", "1-2-N"} {
		assert.True(t, IsRelevant(code), code)
	}
	assert.False(t, IsRelevant("1-2-X"))
	assert.False(t, IsRelevant("1-2-q"))
}
