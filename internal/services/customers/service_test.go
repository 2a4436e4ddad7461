package customers

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/storage/memstore"
	"github.com/stretchr/testify/require"
)

func TestCustomersAndEquipment(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFixed(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	svc := New(memstore.New(), clk)

	_, err := svc.CreateCustomer(ctx, models.Customer{Name: "Jane", Email: "not-an-email"})
	require.True(t, apperr.IsValidation(err))

	c, err := svc.CreateCustomer(ctx, models.Customer{Name: " Jane Doe ", Email: "jane@example.com"})
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", c.Name)
	require.Equal(t, clk.Now(), c.CreatedAt)

	upd, err := svc.UpdateCustomer(ctx, c.ID, models.Customer{Name: "Jane Smith", Phone: "555"})
	require.NoError(t, err)
	require.Equal(t, "Jane Smith", upd.Name)
	require.Equal(t, c.CreatedAt, upd.CreatedAt)

	_, err = svc.UpdateCustomer(ctx, 999, models.Customer{Name: "x"})
	require.True(t, apperr.IsNotFound(err))

	typ, err := svc.CreateEquipmentType(ctx, "Boiler")
	require.NoError(t, err)

	eq, err := svc.CreateEquipment(ctx, models.Equipment{CustomerID: c.ID, TypeID: &typ.ID, Make: "Worcester"})
	require.NoError(t, err)
	require.Equal(t, "Boiler", eq.TypeName)

	_, err = svc.CreateEquipment(ctx, models.Equipment{CustomerID: 999, Make: "x"})
	require.True(t, apperr.IsNotFound(err))

	_, err = svc.CreateEquipment(ctx, models.Equipment{CustomerID: c.ID})
	require.True(t, apperr.IsValidation(err))

	list, err := svc.ListEquipment(ctx, &c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
