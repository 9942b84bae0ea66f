package clients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/shared"
)

type memoryRepo struct {
	byID   map[int64]Client
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: map[int64]Client{}}
}

func (r *memoryRepo) List(ctx context.Context) ([]Client, error) {
	result := []Client{}
	for _, c := range r.byID {
		result = append(result, c)
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Client, error) {
	c, ok := r.byID[id]
	if !ok {
		return Client{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) Create(ctx context.Context, client Client) (Client, error) {
	for _, existing := range r.byID {
		if existing.Name == client.Name {
			return Client{}, ErrNameTaken
		}
	}
	r.nextID++
	client.ID = r.nextID
	r.byID[client.ID] = client
	return client, nil
}

func TestCreateClient(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, Client{Name: "Maison Michel"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Maison Michel", got.Name)
}

func TestCreateClientValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Client{Name: "   "})
	require.Error(t, err)

	bad := "pas-un-email"
	_, err = svc.Create(ctx, Client{Name: "Maison Michel", Email: &bad})
	require.Error(t, err)
}

func TestCreateClientDuplicateName(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Client{Name: "Maison Michel"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Client{Name: "Maison Michel"})
	require.ErrorIs(t, err, ErrNameTaken)
}

func TestGetClientInvalidID(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Get(context.Background(), 0)
	require.Error(t, err)
	_, err = svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
