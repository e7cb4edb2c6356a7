package product

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/query"
)

type mockRepo struct {
	byID    map[int64]*Product
	nextID  int64
	deleted []int64
	updates []Update
}

func newMockRepo(products ...Product) *mockRepo {
	m := &mockRepo{byID: make(map[int64]*Product), nextID: 1}
	for i := range products {
		p := products[i]
		m.byID[p.ID] = &p
		if p.ID >= m.nextID {
			m.nextID = p.ID + 1
		}
	}
	return m
}

func (m *mockRepo) Create(_ context.Context, p *Product) error {
	p.ID = m.nextID
	m.nextID++
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, _ query.Filter, _ query.Options, _ query.Fields) ([]Product, error) {
	out := make([]Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64, _ query.Fields) (*Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByIDs(_ context.Context, ids []int64) ([]Product, error) {
	var out []Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepo) FindByTitle(_ context.Context, title string) (*Product, error) {
	for _, p := range m.byID {
		if p.Title == title {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, id int64, u Update) (*Product, error) {
	m.updates = append(m.updates, u)
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Categories != nil {
		p.Categories = *u.Categories
	}
	if u.Quantity != nil {
		p.Quantity = *u.Quantity
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func ptr[T any](v T) *T { return &v }

func mug() Product {
	return Product{
		ID:          1,
		Title:       "Mug",
		Price:       decimal.RequireFromString("12.50"),
		Description: "Ceramic mug",
		Categories:  []string{"kitchen"},
		Quantity:    4,
	}
}

func TestService_Create(t *testing.T) {
	t.Run("assigns id", func(t *testing.T) {
		svc := NewService(newMockRepo())
		p := &Product{Title: "Mug", Price: decimal.NewFromInt(3)}

		require.NoError(t, svc.Create(context.Background(), p))
		assert.Equal(t, int64(1), p.ID)
	})

	t.Run("duplicate title", func(t *testing.T) {
		svc := NewService(newMockRepo(mug()))
		err := svc.Create(context.Background(), &Product{Title: "Mug"})

		require.ErrorIs(t, err, ErrTitleTaken)
		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("changes only supplied fields", func(t *testing.T) {
		svc := NewService(newMockRepo(mug()))

		got, err := svc.Update(ctx, 1, Update{Quantity: ptr(9)})
		require.NoError(t, err)
		assert.Equal(t, 9, got.Quantity)
		assert.Equal(t, "Mug", got.Title)
		assert.Equal(t, "Ceramic mug", got.Description)
		assert.True(t, decimal.RequireFromString("12.5").Equal(got.Price))
	})

	t.Run("missing product", func(t *testing.T) {
		svc := NewService(newMockRepo())

		_, err := svc.Update(ctx, 42, Update{Quantity: ptr(1)})
		require.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("empty update", func(t *testing.T) {
		repo := newMockRepo(mug())
		svc := NewService(repo)

		_, err := svc.Update(ctx, 1, Update{})
		require.ErrorIs(t, err, ErrEmptyUpdate)
		assert.Empty(t, repo.updates)
	})

	t.Run("title owned by another product", func(t *testing.T) {
		other := mug()
		other.ID = 2
		other.Title = "Plate"
		repo := newMockRepo(mug(), other)
		svc := NewService(repo)

		_, err := svc.Update(ctx, 2, Update{Title: ptr("Mug")})
		require.ErrorIs(t, err, ErrTitleTaken)
		assert.Empty(t, repo.updates)
	})

	t.Run("keeping own title", func(t *testing.T) {
		svc := NewService(newMockRepo(mug()))

		got, err := svc.Update(ctx, 1, Update{Title: ptr("Mug"), Quantity: ptr(0)})
		require.NoError(t, err)
		assert.Equal(t, 0, got.Quantity)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns deleted product", func(t *testing.T) {
		repo := newMockRepo(mug())
		svc := NewService(repo)

		got, err := svc.Delete(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Mug", got.Title)
		assert.Equal(t, []int64{1}, repo.deleted)
	})

	t.Run("missing product", func(t *testing.T) {
		repo := newMockRepo()
		svc := NewService(repo)

		_, err := svc.Delete(ctx, 7)
		require.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, repo.deleted)
	})
}

type failingRepo struct {
	mockRepo
	err error
}

func (f *failingRepo) FindByTitle(context.Context, string) (*Product, error) {
	return nil, f.err
}

func TestService_CreateLookupFailure(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(&failingRepo{mockRepo: *newMockRepo(), err: boom})

	err := svc.Create(context.Background(), &Product{Title: "Mug"})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, apperr.ErrBadRequest)
}
