package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/cartbackend/lib/mylog"
)

func TestStore(t *testing.T) {

	t.Run("Hydrates from the gateway and saves the hydrated state once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		ctx, gateway := setupStore(t, ctrl)
		stored := []CartLine{{Product: product1, Quantity: 2}}
		gateway.EXPECT().Load(gomock.Any()).Return(stored)
		gateway.EXPECT().Save(gomock.Any(), stored)

		// when
		store := NewStore(ctx, gateway, mylog.New("cart"))
		require.NoError(t, store.WaitUntilLoaded(ctx))

		// then
		assert.False(t, store.Loading())
		assert.Equal(t, stored, store.Lines())
		assert.Equal(t, MoneyFromCents(2000), store.TotalPrice())
	})

	t.Run("Nothing stored gives an empty cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		ctx, gateway := setupStore(t, ctrl)
		gateway.EXPECT().Load(gomock.Any()).Return(nil)
		gateway.EXPECT().Save(gomock.Any(), []CartLine{})

		// when
		store := hydratedStore(t, ctx, gateway)

		// then
		view := store.View()
		assert.Equal(t, []CartLine{}, view.Cart)
		assert.Equal(t, Money(0), view.TotalPrice)
		assert.False(t, view.Loading)
	})

	t.Run("Every mutation saves the resulting snapshot in order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		ctx, gateway := setupStore(t, ctrl)
		gateway.EXPECT().Load(gomock.Any()).Return([]CartLine{})
		gateway.EXPECT().Save(gomock.Any(), []CartLine{})
		store := hydratedStore(t, ctx, gateway)

		gomock.InOrder(
			gateway.EXPECT().Save(gomock.Any(), []CartLine{{Product: product1, Quantity: 1}}),
			gateway.EXPECT().Save(gomock.Any(), []CartLine{{Product: product1, Quantity: 1}, {Product: product2, Quantity: 1}}),
			gateway.EXPECT().Save(gomock.Any(), []CartLine{{Product: product1, Quantity: 2}, {Product: product2, Quantity: 1}}),
			gateway.EXPECT().Save(gomock.Any(), []CartLine{{Product: product1, Quantity: 1}, {Product: product2, Quantity: 1}}),
			gateway.EXPECT().Save(gomock.Any(), []CartLine{{Product: product2, Quantity: 1}}),
			gateway.EXPECT().Save(gomock.Any(), []CartLine{}),
		)

		// when
		store.AddItem(ctx, product1)
		store.AddItem(ctx, product2)
		store.UpdateQuantity(ctx, "1", Increment)
		store.UpdateQuantity(ctx, "1", Decrement)
		store.RemoveItem(ctx, "1")
		store.Clear(ctx)

		// then
		assert.Empty(t, store.Lines())
	})

	t.Run("Scenario: dec twice removes the line", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		ctx, gateway := setupStore(t, ctrl)
		gateway.EXPECT().Load(gomock.Any()).Return([]CartLine{})
		gateway.EXPECT().Save(gomock.Any(), gomock.Any()).Times(5)
		store := hydratedStore(t, ctx, gateway)

		// when
		store.AddItem(ctx, product1)
		store.AddItem(ctx, product2)
		store.UpdateQuantity(ctx, "1", Decrement)
		store.UpdateQuantity(ctx, "1", Decrement)

		// then
		assert.Equal(t, []CartLine{{Product: product2, Quantity: 1}}, store.Lines())
		assert.Equal(t, "5.00", store.TotalPrice().String())
	})

	t.Run("Returned snapshots are not affected by later mutations", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		ctx, gateway := setupStore(t, ctrl)
		gateway.EXPECT().Load(gomock.Any()).Return([]CartLine{{Product: product1, Quantity: 1}})
		gateway.EXPECT().Save(gomock.Any(), gomock.Any()).Times(2)
		store := hydratedStore(t, ctx, gateway)
		before := store.Lines()

		// when
		store.UpdateQuantity(ctx, "1", Increment)

		// then
		assert.Equal(t, 1, before[0].Quantity)
		assert.Equal(t, 2, store.Lines()[0].Quantity)
	})

	t.Run("Mutations while hydrating are not saved and are replayed on the loaded cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		ctx, gateway := setupStore(t, ctrl)
		release := make(chan struct{})
		gateway.EXPECT().Load(gomock.Any()).DoAndReturn(func(c context.Context) []CartLine {
			<-release
			return []CartLine{{Product: product1, Quantity: 1}, {Product: product3, Quantity: 1}}
		})
		store := NewStore(ctx, gateway, mylog.New("cart"))

		// when
		assert.True(t, store.Loading())
		store.AddItem(ctx, product1)
		store.AddItem(ctx, product2)
		store.UpdateQuantity(ctx, "3", Decrement)

		// then
		assert.Equal(t, []CartLine{{Product: product1, Quantity: 1}, {Product: product2, Quantity: 1}}, store.Lines())
		assert.True(t, store.View().Loading)

		// when
		expected := []CartLine{{Product: product1, Quantity: 2}, {Product: product2, Quantity: 1}}
		gateway.EXPECT().Save(gomock.Any(), expected)
		close(release)
		require.NoError(t, store.WaitUntilLoaded(ctx))

		// then
		assert.False(t, store.Loading())
		assert.Equal(t, expected, store.Lines())
	})

	t.Run("Wait until loaded gives up when the context ends", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		ctx, gateway := setupStore(t, ctrl)
		release := make(chan struct{})
		gateway.EXPECT().Load(gomock.Any()).DoAndReturn(func(c context.Context) []CartLine {
			<-release
			return nil
		})
		gateway.EXPECT().Save(gomock.Any(), []CartLine{})
		store := NewStore(ctx, gateway, mylog.New("cart"))

		// when
		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		err := store.WaitUntilLoaded(waitCtx)

		// then
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		close(release)
		require.NoError(t, store.WaitUntilLoaded(ctx))
	})
}

func setupStore(t *testing.T, ctrl *gomock.Controller) (context.Context, *MockPersistenceGateway) {
	return context.TODO(), NewMockPersistenceGateway(ctrl)
}

func hydratedStore(t *testing.T, ctx context.Context, gateway PersistenceGateway) *Store {
	store := NewStore(ctx, gateway, mylog.New("cart"))
	require.NoError(t, store.WaitUntilLoaded(ctx))
	return store
}
