package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
)

type stubCatalog struct {
	calls int
	ids   []uuid.UUID
	rows  []models.Product
	err   error
}

func (s *stubCatalog) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	s.calls++
	s.ids = ids
	return s.rows, s.err
}

func TestVerifyAllAvailable(t *testing.T) {
	a := models.Product{ID: uuid.New(), Title: "Emma", StockQuantity: 3}
	b := models.Product{ID: uuid.New(), Title: "Dune", StockQuantity: 1}
	cat := &stubCatalog{rows: []models.Product{a, b}}
	v, err := NewVerifier(cat)
	require.NoError(t, err)

	res, err := v.Verify(context.Background(), []Request{{ProductID: a.ID, Quantity: 3}, {ProductID: b.ID, Quantity: 1}})
	require.NoError(t, err)
	require.True(t, res.Available)
	require.Empty(t, res.Shortfalls)
	require.Equal(t, 1, cat.calls)
	require.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, cat.ids)
}

func TestVerifyReportsShortAndMissing(t *testing.T) {
	short := models.Product{ID: uuid.New(), Title: "Emma", StockQuantity: 1}
	missing := uuid.New()
	cat := &stubCatalog{rows: []models.Product{short}}
	v, err := NewVerifier(cat)
	require.NoError(t, err)

	res, err := v.Verify(context.Background(), []Request{{ProductID: short.ID, Quantity: 2}, {ProductID: missing, Quantity: 1}})
	require.NoError(t, err)
	require.False(t, res.Available)
	require.Equal(t, []uuid.UUID{short.ID, missing}, res.Shortfalls)
	require.Equal(t, Shortfall{ProductID: short.ID, Title: "Emma", Requested: 2, Available: 1}, res.Details[0])
	require.Equal(t, Shortfall{ProductID: missing, Requested: 1}, res.Details[1])
	require.Equal(t, 1, cat.calls)
}

func TestVerifySumsDuplicateRequests(t *testing.T) {
	p := models.Product{ID: uuid.New(), StockQuantity: 3}
	cat := &stubCatalog{rows: []models.Product{p}}
	v, err := NewVerifier(cat)
	require.NoError(t, err)

	res, err := v.Verify(context.Background(), []Request{{ProductID: p.ID, Quantity: 2}, {ProductID: p.ID, Quantity: 2}})
	require.NoError(t, err)
	require.False(t, res.Available)
	require.Len(t, cat.ids, 1)
}

func TestVerifyEmptyRequestSkipsCatalog(t *testing.T) {
	cat := &stubCatalog{}
	v, err := NewVerifier(cat)
	require.NoError(t, err)

	res, err := v.Verify(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.Available)
	require.Zero(t, cat.calls)
}

func TestVerifyCatalogFailure(t *testing.T) {
	v, err := NewVerifier(&stubCatalog{err: errors.New("timeout")})
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), []Request{{ProductID: uuid.New(), Quantity: 1}})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}
