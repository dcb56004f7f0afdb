package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/turismap/internal/client/client"
	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/logging"
	"github.com/dmitrijs2005/turismap/internal/rpc"
	"github.com/dmitrijs2005/turismap/internal/server/changefeed"
	"github.com/dmitrijs2005/turismap/internal/server/config"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/turismap/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

// startServer runs the real services on an in-memory store behind bufconn
// and returns a dialer for clients.
func startServer(t *testing.T) func() *client.GRPCClient {
	t.Helper()

	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: time.Hour,
	}
	rm := repomanager.NewMemoryRepositoryManager()
	hub := changefeed.NewHub()
	us := services.NewUserService(rm, hub, cfg)
	ds := services.NewDocumentService(rm, hub, hub)
	s := NewGRPCServer("bufnet", logging.Nop(), us, ds, nil)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	return func() *client.GRPCClient {
		c, err := client.NewGRPCClient("passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}))
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
}

func TestEndToEnd_AuthFlow(t *testing.T) {
	dial := startServer(t)
	c := dial()
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	sess, err := c.SignUp(ctx, rpc.Credentials{Email: "ana@example.com", Password: "secret1", Name: "Ana", Role: models.RoleTourist})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Profile["id"])
	assert.Equal(t, models.RoleTourist, sess.Profile["role"])

	_, err = c.SignUp(ctx, rpc.Credentials{Email: "ana@example.com", Password: "secret1", Name: "Ana", Role: models.RoleTourist})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = c.SignUp(ctx, rpc.Credentials{Email: "bad", Password: "1", Name: "", Role: "x"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = c.SignIn(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	again, err := c.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, sess.Profile["id"], again.Profile["id"])

	// the profile record is readable like any other document
	doc, err := c.Get(ctx, common.CollectionUsers, again.Profile["id"].(string))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Ana", doc.Data["name"])
}

func TestEndToEnd_DocumentsRequireToken(t *testing.T) {
	c := startServer(t)()

	_, err := c.Query(context.Background(), common.CollectionProducts)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestEndToEnd_FavoritesCRUD(t *testing.T) {
	c := startServer(t)()
	ctx := context.Background()

	sess, err := c.SignUp(ctx, rpc.Credentials{Email: "t@example.com", Password: "secret1", Name: "T", Role: models.RoleTourist})
	require.NoError(t, err)
	uid := sess.Profile["id"].(string)

	id, err := c.Create(ctx, common.CollectionFavorites, map[string]any{"userId": uid, "placeId": "cristo", "rating": 4.5})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	docs, err := c.Query(ctx, common.CollectionFavorites, rpc.Filter{Field: "userId", Op: rpc.OpEqual, Value: uid})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "cristo", docs[0].Data["placeId"])
	assert.NotEmpty(t, docs[0].Data["createdAt"])

	require.NoError(t, c.Update(ctx, common.CollectionFavorites, id, map[string]any{"rating": 5.0}))
	got, err := c.Get(ctx, common.CollectionFavorites, id)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Data["rating"])
	assert.Equal(t, "cristo", got.Data["placeId"])

	require.NoError(t, c.Delete(ctx, common.CollectionFavorites, id))
	got, err = c.Get(ctx, common.CollectionFavorites, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = c.Delete(ctx, common.CollectionFavorites, id)
	assert.ErrorIs(t, err, client.ErrNotFound)

	_, err = c.Query(ctx, common.CollectionFavorites, rpc.Filter{Field: "rating", Op: ">", Value: 1})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestEndToEnd_ProductsAreSellerOnly(t *testing.T) {
	dial := startServer(t)
	ctx := context.Background()

	tourist := dial()
	_, err := tourist.SignUp(ctx, rpc.Credentials{Email: "t@example.com", Password: "secret1", Name: "T", Role: models.RoleTourist})
	require.NoError(t, err)

	_, err = tourist.Create(ctx, common.CollectionProducts, map[string]any{"title": "x"})
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	seller := dial()
	sess, err := seller.SignUp(ctx, rpc.Credentials{Email: "s@example.com", Password: "secret1", Name: "S", Role: models.RoleSeller})
	require.NoError(t, err)

	_, err = seller.Create(ctx, common.CollectionProducts, map[string]any{
		"sellerId": sess.Profile["id"], "title": "Passeio", "available": true, "placeIds": []any{"rio"},
	})
	require.NoError(t, err)

	docs, err := tourist.Query(ctx, common.CollectionProducts, rpc.Filter{Field: "placeIds", Op: rpc.OpArrayContains, Value: "rio"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestEndToEnd_SubscribeStreamsSnapshots(t *testing.T) {
	dial := startServer(t)
	ctx := context.Background()

	seller := dial()
	sess, err := seller.SignUp(ctx, rpc.Credentials{Email: "s@example.com", Password: "secret1", Name: "S", Role: models.RoleSeller})
	require.NoError(t, err)
	sellerID := sess.Profile["id"].(string)

	watcher := dial()
	_, err = watcher.SignUp(ctx, rpc.Credentials{Email: "w@example.com", Password: "secret1", Name: "W", Role: models.RoleTourist})
	require.NoError(t, err)

	got := make(chan *rpc.Document, 4)
	release, err := watcher.Subscribe(ctx, common.CollectionSellers, sellerID, func(d *rpc.Document) { got <- d })
	require.NoError(t, err)
	defer release()

	select {
	case d := <-got:
		assert.Nil(t, d, "no storefront yet")
	case <-time.After(2 * time.Second):
		t.Fatal("no initial event")
	}

	require.NoError(t, seller.Put(ctx, common.CollectionSellers, sellerID, map[string]any{"storeName": "Loja", "userId": sellerID}, true))

	select {
	case d := <-got:
		require.NotNil(t, d)
		assert.Equal(t, "Loja", d.Data["storeName"])
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after put")
	}
}

func TestEndToEnd_MediaUnavailableWithoutStorage(t *testing.T) {
	c := startServer(t)()
	ctx := context.Background()

	_, err := c.SignUp(ctx, rpc.Credentials{Email: "s@example.com", Password: "secret1", Name: "S", Role: models.RoleSeller})
	require.NoError(t, err)

	_, _, err = c.PresignPut(ctx, "image/png")
	assert.ErrorIs(t, err, client.ErrUnavailable)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	s := NewGRPCServer("127.0.0.1:0", logging.Nop(), &fakeUsers{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	s := NewGRPCServer("127.0.0.1:99999", logging.Nop(), &fakeUsers{}, nil, nil)
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
